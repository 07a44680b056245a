package model

// Response is the uniform API envelope.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Token   string      `json:"token,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data interface{}) Response {
	return Response{Status: "success", Data: data}
}

// Error wraps a message in an error envelope.
func Error(message string) Response {
	return Response{Status: "error", Message: message}
}

// WalletResponse is the directory lookup payload.
type WalletResponse struct {
	WalletAddress string `json:"walletAddress"`
}
