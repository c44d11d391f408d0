// Package testutil fakes the school REST API for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/colegio/core/auth"
)

const tokenKey = "upstream-test-key"

type (
	record     map[string]interface{}
	collection struct {
		nextID int
		items  map[int]record
	}

	failure struct {
		status  int
		message interface{}
	}

	// Upstream is an in-memory school API: generic JSON collections with soft delete,
	// bearer tokens and the pension/login specific endpoints.
	Upstream struct {
		*httptest.Server
		// Envelope wraps successful answers in {"data": ...}.
		Envelope bool

		mu          sync.Mutex
		collections map[string]*collection
		users       map[string]user
		tokens      map[string]bool
		calls       map[string]int
		failures    map[string]failure
	}

	user struct {
		password string
		name     string
		role     string
	}
)

func NewUpstream(t *testing.T) *Upstream {
	up := &Upstream{
		collections: make(map[string]*collection),
		users:       make(map[string]user),
		tokens:      make(map[string]bool),
		calls:       make(map[string]int),
		failures:    make(map[string]failure),
	}
	up.Server = httptest.NewServer(http.HandlerFunc(up.serve))
	t.Cleanup(up.Close)
	return up
}

// AddUser registers login credentials.
func (up *Upstream) AddUser(username, password, name, role string) {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.users[username] = user{password: password, name: name, role: role}
}

// Token issues a valid token for username.
func (up *Upstream) Token(t *testing.T, username, role string) string {
	token := SignToken(t, auth.Claims{
		StandardClaims: jwt.StandardClaims{Subject: username, ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Username:       username,
		Name:           username,
		Role:           role,
	})
	up.mu.Lock()
	up.tokens[token] = true
	up.mu.Unlock()
	return token
}

// RevokeTokens makes every issued token answer 401.
func (up *Upstream) RevokeTokens() {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.tokens = make(map[string]bool)
}

// SignToken signs claims with a key the gateway never checks.
func SignToken(t *testing.T, claims auth.Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenKey))
	if err != nil {
		t.Fatalf("SignToken() failed: %v", err)
	}
	return token
}

// Seed stores items (any JSON object) in the collection and returns their ids.
// Items without "id" get the next one; "estaActivo" defaults to true.
func (up *Upstream) Seed(t *testing.T, name string, items ...interface{}) []int {
	up.mu.Lock()
	defer up.mu.Unlock()
	ids := make([]int, 0, len(items))
	for _, item := range items {
		rec := toRecord(t, item)
		ids = append(ids, up.insert(name, rec)["id"].(int))
	}
	return ids
}

// Item returns a stored item, nil if missing.
func (up *Upstream) Item(name string, id int) map[string]interface{} {
	up.mu.Lock()
	defer up.mu.Unlock()
	rec, ok := up.collection(name).items[id]
	if !ok {
		return nil
	}
	return copyRecord(rec)
}

// Calls returns how many times "METHOD /path" was requested.
func (up *Upstream) Calls(method, path string) int {
	up.mu.Lock()
	defer up.mu.Unlock()
	return up.calls[method+" "+path]
}

// Fail makes the next "METHOD /path" request answer status with body {"message": message}.
func (up *Upstream) Fail(method, path string, status int, message interface{}) {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.failures[method+" "+path] = failure{status: status, message: message}
}

func toRecord(t *testing.T, item interface{}) record {
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("toRecord() failed: %v", err)
	}
	rec := make(record)
	if err = json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("toRecord() failed: %v", err)
	}
	return rec
}

func copyRecord(rec record) record {
	cp := make(record, len(rec))
	for k, v := range rec {
		cp[k] = v
	}
	return cp
}

func (up *Upstream) collection(name string) *collection {
	c, ok := up.collections[name]
	if !ok {
		c = &collection{items: make(map[int]record)}
		up.collections[name] = c
	}
	return c
}

func (up *Upstream) insert(name string, rec record) record {
	c := up.collection(name)
	id, ok := rec["id"].(float64)
	if !ok || id == 0 {
		c.nextID++
		id = float64(c.nextID)
	} else if int(id) > c.nextID {
		c.nextID = int(id)
	}
	rec["id"] = int(id)
	if _, ok = rec["estaActivo"]; !ok {
		rec["estaActivo"] = true
	}
	c.items[int(id)] = rec
	return rec
}

func (up *Upstream) list(name string, match func(record) bool) []record {
	c := up.collection(name)
	ids := make([]int, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	res := make([]record, 0, len(ids))
	for _, id := range ids {
		if match == nil || match(c.items[id]) {
			res = append(res, copyRecord(c.items[id]))
		}
	}
	return res
}

func (up *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	up.mu.Lock()
	defer up.mu.Unlock()

	call := r.Method + " " + r.URL.Path
	up.calls[call]++
	if f, ok := up.failures[call]; ok {
		delete(up.failures, call)
		up.reply(w, f.status, map[string]interface{}{"message": f.message}, false)
		return
	}

	segs := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if r.Method == http.MethodPost && r.URL.Path == "/auth/login" {
		up.login(w, r)
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !up.tokens[token] {
		up.reply(w, http.StatusUnauthorized, map[string]interface{}{"message": "Unauthorized", "statusCode": 401}, false)
		return
	}
	if r.Method == http.MethodGet && r.URL.Path == "/auth/perfil" {
		up.reply(w, http.StatusOK, map[string]interface{}{"activo": true}, true)
		return
	}

	name := segs[0]
	var body record
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			up.reply(w, http.StatusBadRequest, map[string]interface{}{"message": []string{"JSON inválido"}}, false)
			return
		}
	}

	switch {
	case len(segs) == 1 && r.Method == http.MethodGet:
		up.reply(w, http.StatusOK, up.list(name, nil), true)
	case len(segs) == 1 && r.Method == http.MethodPost:
		up.reply(w, http.StatusCreated, up.insert(name, body), true)
	case len(segs) == 3 && name == "pensiones" && segs[1] == "estudiante" && r.Method == http.MethodGet:
		studentID, _ := strconv.Atoi(segs[2])
		up.reply(w, http.StatusOK, up.list(name, func(rec record) bool {
			id, _ := rec["estudianteId"].(float64)
			return int(id) == studentID
		}), true)
	case len(segs) >= 2:
		id, err := strconv.Atoi(segs[1])
		rec, ok := up.collection(name).items[id]
		if err != nil || !ok {
			up.reply(w, http.StatusNotFound, map[string]interface{}{"message": "Registro no encontrado"}, false)
			return
		}
		switch {
		case len(segs) == 2 && r.Method == http.MethodGet:
			up.reply(w, http.StatusOK, rec, true)
		case len(segs) == 2 && (r.Method == http.MethodPatch || r.Method == http.MethodPut):
			for k, v := range body {
				rec[k] = v
			}
			rec["id"] = id
			up.reply(w, http.StatusOK, rec, true)
		case len(segs) == 2 && r.Method == http.MethodDelete:
			rec["estaActivo"] = false
			up.reply(w, http.StatusOK, map[string]interface{}{"message": "Registro eliminado"}, false)
		case len(segs) == 3 && name == "pensiones" && segs[2] == "pagar" && r.Method == http.MethodPatch:
			for k, v := range body {
				rec[k] = v
			}
			rec["estado"] = "PAGADO"
			up.reply(w, http.StatusOK, rec, true)
		default:
			up.reply(w, http.StatusMethodNotAllowed, map[string]interface{}{"error": "Method Not Allowed"}, false)
		}
	default:
		up.reply(w, http.StatusNotFound, map[string]interface{}{"error": "Not Found"}, false)
	}
}

func (up *Upstream) login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	_ = json.NewDecoder(r.Body).Decode(&creds)
	u, ok := up.users[creds.Username]
	if !ok || u.password != creds.Password {
		up.reply(w, http.StatusUnauthorized, map[string]interface{}{"message": "Credenciales inválidas"}, false)
		return
	}
	claims := auth.Claims{
		StandardClaims: jwt.StandardClaims{Subject: creds.Username, ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Username:       creds.Username,
		Name:           u.name,
		Role:           u.role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenKey))
	if err != nil {
		up.reply(w, http.StatusInternalServerError, nil, false)
		return
	}
	up.tokens[token] = true
	up.reply(w, http.StatusCreated, map[string]interface{}{"access_token": token}, false)
}

func (up *Upstream) reply(w http.ResponseWriter, status int, payload interface{}, data bool) {
	if data && up.Envelope {
		payload = map[string]interface{}{"data": payload, "success": true}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
