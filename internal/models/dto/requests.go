package dto

import "github.com/hongminglow/recruit-portal/internal/models"

// RequestResponse decorates a stored request with display fields.
type RequestResponse struct {
	models.Request
	Reference string `json:"reference"`
	TypeLabel string `json:"typeLabel"`
}

func NewRequestResponse(r models.Request) RequestResponse {
	return RequestResponse{Request: r, Reference: r.Reference(), TypeLabel: r.Type.Label()}
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
