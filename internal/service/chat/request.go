package chat

// Action 显式动作
type Action string

const (
	ActionClearContext     Action = "clear_context"
	ActionGetContext       Action = "get_context"
	ActionGetHistory       Action = "get_history"
	ActionGetConversations Action = "get_conversations"
)

// Valid 是否为已知动作
func (a Action) Valid() bool {
	switch a {
	case ActionClearContext, ActionGetContext, ActionGetHistory, ActionGetConversations:
		return true
	}
	return false
}

// Upload 上传的文件
type Upload struct {
	Filename string
	Data     []byte
}

// Input 传输层收集的原始参数，全部可选
type Input struct {
	SessionID string
	Action    string
	Message   string
	File      *Upload
}

// Request 解析后的请求，只有以下四种实现
type Request interface {
	session() string
}

// ActionRequest 执行显式动作
type ActionRequest struct {
	SessionID string
	Action    Action
}

// UploadRequest 仅上传文件
type UploadRequest struct {
	SessionID string
	File      Upload
}

// MessageRequest 仅发送消息
type MessageRequest struct {
	SessionID string
	Message   string
}

// UploadAndMessageRequest 上传文件并提问
type UploadAndMessageRequest struct {
	SessionID string
	File      Upload
	Message   string
}

func (r *ActionRequest) session() string           { return r.SessionID }
func (r *UploadRequest) session() string           { return r.SessionID }
func (r *MessageRequest) session() string          { return r.SessionID }
func (r *UploadAndMessageRequest) session() string { return r.SessionID }

// Resolve 按优先级将原始参数解析为请求：动作 > 文件 > 消息
func Resolve(in Input) (Request, error) {
	if in.Action != "" {
		action := Action(in.Action)
		if !action.Valid() {
			return nil, newInputError("Unknown action: %s", in.Action)
		}
		return &ActionRequest{SessionID: in.SessionID, Action: action}, nil
	}

	if in.File != nil {
		if len(in.File.Data) == 0 {
			return nil, ErrEmptyFile
		}
		if in.Message != "" {
			return &UploadAndMessageRequest{SessionID: in.SessionID, File: *in.File, Message: in.Message}, nil
		}
		return &UploadRequest{SessionID: in.SessionID, File: *in.File}, nil
	}

	if in.Message != "" {
		return &MessageRequest{SessionID: in.SessionID, Message: in.Message}, nil
	}

	return nil, ErrNoInput
}
