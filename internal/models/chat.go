package models

// ChatRequest asks a provider to answer a single user message.
type ChatRequest struct {
	ModelType string `json:"model_type" form:"model_type" validate:"required"`
	Message   string `json:"message" form:"message" validate:"required,max=4000"`
}

// ChatReply is the assistant answer for a ChatRequest.
type ChatReply struct {
	ModelType string `json:"model_type"`
	Message   string `json:"message"`
	Reply     string `json:"reply"`
}
