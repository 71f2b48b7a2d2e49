package api

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func message(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}

// PageQuery holds the shared pagination query parameters. Zero values fall
// back to the configured defaults.
type PageQuery struct {
	Page     int `query:"page" minimum:"0" doc:"1-based page number (default 1)"`
	PageSize int `query:"page_size" minimum:"0" doc:"Items per page (default and maximum are server settings)"`
}
