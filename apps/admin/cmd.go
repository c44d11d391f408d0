package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/auth"
	"github.com/trezcool/colegio/core/pension"
	"github.com/trezcool/colegio/core/student"
	sheetsvc "github.com/trezcool/colegio/services/spreadsheet"
	"github.com/trezcool/colegio/storage/database"
)

var (
	// mockable
	readPasswordFunc    = term.ReadPassword
	openDBFunc          = database.Open
	migrateFunc         = database.Migrate
	migrationStatusFunc = database.MigrationStatus

	errHelp           = errors.New("help provided")
	errSessionExpired = errors.New("la sesión expiró: vuelva a ejecutar `admin login`")
)

// Authenticator exchanges credentials for an API token.
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (string, auth.Claims, error)
}

type commandLine struct {
	conf     *core.Config
	out      io.Writer
	tokens   auth.TokenStore
	auth     Authenticator
	students *student.Service
	pensions *pension.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME                 - log in (the password is prompted next)")
	fmt.Fprintln(cli.out, "  logout                                   - forget the stored session")
	fmt.Fprintln(cli.out, "  students [-search TEXT]                  - list students")
	fmt.Fprintln(cli.out, "  pensions -student ID                     - list the pensions of a student")
	fmt.Fprintln(cli.out, "  stats                                    - student and pension statistics")
	fmt.Fprintln(cli.out, "  remind-overdue                           - e-mail every guardian with an overdue pension")
	fmt.Fprintln(cli.out, "  export -entity students|pensions -out F  - export a table to xlsx")
	fmt.Fprintln(cli.out, "  migrate [up|status]                      - migrate the activity log database")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	err := cli.dispatch(args[1], args[2:])
	if core.IsUnauthorized(err) {
		_ = cli.tokens.Clear(context.Background())
		return errSessionExpired
	}
	return err
}

func (cli *commandLine) dispatch(cmd string, args []string) error {
	ctx := context.Background()

	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		username := fs.String("username", "", "Your username. The password will be prompted next.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if strings.TrimSpace(*username) == "" {
			fs.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Contraseña: ")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return errors.Wrap(err, "reading password")
		}
		if len(pwd) == 0 {
			fs.Usage()
			return errHelp
		}
		return cli.login(ctx, auth.Credentials{Username: *username, Password: string(pwd)})

	case "logout":
		if err := cli.tokens.Clear(ctx); err != nil {
			return errors.Wrap(err, "clearing session")
		}
		fmt.Fprintln(cli.out, "Sesión cerrada")
		return nil

	case "students":
		fs := flag.NewFlagSet("students", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		search := fs.String("search", "", "Filter by name, DNI, classroom or guardian.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		return cli.listStudents(ctx, *search)

	case "pensions":
		fs := flag.NewFlagSet("pensions", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		studentID := fs.Int("student", 0, "The student's id.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if *studentID < 1 {
			fs.Usage()
			return errHelp
		}
		return cli.listPensions(ctx, *studentID)

	case "stats":
		return cli.stats(ctx)

	case "remind-overdue":
		sent, err := cli.pensions.RemindOverdue(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d recordatorios enviados\n", sent)
		return nil

	case "export":
		fs := flag.NewFlagSet("export", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		entity := fs.String("entity", "", "students or pensions.")
		out := fs.String("out", "", "The xlsx file to write.")
		if err := fs.Parse(args); err != nil {
			return errHelp
		}
		if *out == "" || (*entity != "students" && *entity != "pensions") {
			fs.Usage()
			return errHelp
		}
		return cli.export(ctx, *entity, *out)

	case "migrate":
		sub := "up"
		if len(args) > 0 {
			sub = args[0]
		}
		return cli.migrate(ctx, sub)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(ctx context.Context, creds auth.Credentials) error {
	creds.Clean()
	token, claims, err := cli.auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err = cli.tokens.Save(ctx, token); err != nil {
		return errors.Wrap(err, "saving session")
	}
	fmt.Fprintf(cli.out, "Bienvenido(a), %s (%s)\n", claims.DisplayName(), claims.Role)
	return nil
}

func (cli *commandLine) listStudents(ctx context.Context, search string) error {
	students, err := cli.students.Query(ctx, student.QueryFilter{Search: search}, core.ParseOrdering("apellido,nombre"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAPELLIDO\tNOMBRE\tDNI\tAULA\tACTIVO")
	for _, s := range students {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.LastName, s.FirstName, s.DNI, s.ClassroomLabel(), yesNo(s.IsActive))
	}
	fmt.Fprintf(w, "\n%d estudiantes\n", len(students))
	return w.Flush()
}

func (cli *commandLine) listPensions(ctx context.Context, studentID int) error {
	pensions, err := cli.pensions.QueryByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	today := core.Today()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPERIODO\tTOTAL\tVENCE\tESTADO")
	for _, p := range pensions {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%s\n", p.ID, p.Period(), p.Total(), p.DueDate, p.EffectiveStatus(today))
	}
	return w.Flush()
}

func (cli *commandLine) stats(ctx context.Context) error {
	st, err := cli.students.Stats(ctx)
	if err != nil {
		return err
	}
	pst, err := cli.pensions.Stats(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Estudiantes\t%d (%d activos)\n", st.Total, st.Active)
	fmt.Fprintf(w, "Pensiones\t%d\n", pst.Total)
	for _, status := range []string{pension.StatusPending, pension.StatusOverdue, pension.StatusPaid} {
		t := pst.ByStatus[status]
		fmt.Fprintf(w, "  %s\t%d\tS/ %.2f\n", status, t.Count, t.Amount)
	}
	fmt.Fprintf(w, "Cobranza\t%.1f%%\n", pst.CollectionRate)
	return w.Flush()
}

func (cli *commandLine) export(ctx context.Context, entity, path string) (err error) {
	var write func(io.Writer) error
	switch entity {
	case "students":
		students, err := cli.students.Query(ctx, student.QueryFilter{}, core.ParseOrdering("apellido,nombre"))
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return sheetsvc.ExportStudents(w, students) }
	default:
		pensions, err := cli.pensions.Query(ctx, pension.QueryFilter{}, core.ParseOrdering("-periodo"))
		if err != nil {
			return err
		}
		write = func(w io.Writer) error { return sheetsvc.ExportPensions(w, pensions, core.Today()) }
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	if err = write(f); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Exportado a %s\n", path)
	return nil
}

func (cli *commandLine) migrate(ctx context.Context, sub string) error {
	var run func(db *sqlx.DB) error
	switch sub {
	case "up":
		run = migrateFunc
	case "status":
		run = migrationStatusFunc
	default:
		return errors.Errorf("%q: no such migrate command", sub)
	}
	if !cli.conf.Database.Enabled() {
		return errors.New("no activity database configured (set DATABASE_HOST)")
	}

	db, err := openDBFunc(ctx, cli.conf.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return run(db)
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
