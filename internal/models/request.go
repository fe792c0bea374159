package models

import "time"

// RequestType is the category of a recruitment request.
type RequestType string

const (
	RequestEnlistment        RequestType = "enlistment"
	RequestPostponement      RequestType = "postponement"
	RequestExemption         RequestType = "exemption"
	RequestStatusCertificate RequestType = "status_certificate"
	RequestTravelPermit      RequestType = "travel_permit"
)

var requestTypeLabels = map[RequestType]string{
	RequestEnlistment:        "Enlistment",
	RequestPostponement:      "Postponement",
	RequestExemption:         "Exemption",
	RequestStatusCertificate: "Military Status Certificate",
	RequestTravelPermit:      "Travel Permit",
}

// RequestTypes lists every accepted request type in display order.
func RequestTypes() []RequestType {
	return []RequestType{
		RequestEnlistment,
		RequestPostponement,
		RequestExemption,
		RequestStatusCertificate,
		RequestTravelPermit,
	}
}

// Valid reports whether t is one of the enumerated request types.
func (t RequestType) Valid() bool {
	_, ok := requestTypeLabels[t]
	return ok
}

// Label returns the display label for t.
func (t RequestType) Label() string {
	return requestTypeLabels[t]
}

// RequestStatus is the review state of a request. Only the initial state exists today.
type RequestStatus string

const StatusUnderReview RequestStatus = "Under Review"

// Request is a recruitment submission owned by a user. UserName and
// BirthGovernorate are snapshots taken at creation time.
type Request struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"userId"`
	UserName             string        `json:"userName"`
	Type                 RequestType   `json:"type"`
	Message              string        `json:"message"`
	FileName             string        `json:"filename"`
	BirthGovernorate     string        `json:"birthGovernorate"`
	RequestedGovernorate string        `json:"requestedGovernorate"`
	Status               RequestStatus `json:"status"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// Reference is the short identifier shown to applicants.
func (r Request) Reference() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}
