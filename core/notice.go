package core

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice is the toast shown to the user after an action.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func SuccessNotice(msg string) Notice { return Notice{Type: NoticeSuccess, Message: msg} }
func ErrorNotice(msg string) Notice   { return Notice{Type: NoticeError, Message: msg} }
func InfoNotice(msg string) Notice    { return Notice{Type: NoticeInfo, Message: msg} }
