package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListResponse envoltorio de listados.
type ListResponse[T any] struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
	Items []T  `json:"items"`
}

// NewListResponse construye la respuesta; nunca serializa items como null.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{OK: true, Count: len(items), Items: items}
}
