package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateIssuanceRequest struct {
	AssetID           uint64 `json:"asset_id"`
	WardName          string `json:"ward_name"`
	PatientID         string `json:"patient_id"`
	RequestedQuantity int64  `json:"requested_quantity"`
	Remarks           string `json:"remarks"`
}

type CancelIssuanceRequest struct {
	Reason string `json:"reason"`
}

type IssuanceRequestDTO struct {
	RequestID         uint64 `json:"request_id"`
	AssetID           uint64 `json:"asset_id"`
	RequesterID       string `json:"requester_id"`
	WardName          string `json:"ward_name"`
	PatientID         string `json:"patient_id,omitempty"`
	RequestedQuantity int64  `json:"requested_quantity"`
	Remarks           string `json:"remarks,omitempty"`
	Stage             string `json:"stage"`
	StoreApproved     bool   `json:"store_approved"`
	AdminApproved     bool   `json:"admin_approved"`
	Issued            bool   `json:"issued"`
	Cancelled         bool   `json:"cancelled"`
	CancelReason      string `json:"cancel_reason,omitempty"`
	RequestedAt       string `json:"requested_at"`
	UpdatedAt         string `json:"updated_at"`
}

type IssuanceResponse struct {
	Item     IssuanceRequestDTO `json:"item"`
	Replayed bool               `json:"replayed,omitempty"`
}

type ListIssuanceResponse struct {
	Items []IssuanceRequestDTO `json:"items"`
}

type CreateProcurementRequest struct {
	ItemName        string `json:"item_name"`
	ItemType        string `json:"item_type"`
	Quantity        int64  `json:"quantity"`
	Reason          string `json:"reason"`
	Urgency         string `json:"urgency"`
	AdditionalNotes string `json:"additional_notes"`
}

type ResolveProcurementRequest struct {
	Response string `json:"response"`
}

type ProcurementRequestDTO struct {
	RequestID        uint64 `json:"request_id"`
	RequesterID      string `json:"requester_id"`
	ItemName         string `json:"item_name"`
	ItemType         string `json:"item_type,omitempty"`
	Quantity         int64  `json:"quantity"`
	Reason           string `json:"reason,omitempty"`
	Urgency          string `json:"urgency"`
	AdditionalNotes  string `json:"additional_notes,omitempty"`
	State            string `json:"state"`
	HospitalResponse string `json:"hospital_response,omitempty"`
	RequestedAt      string `json:"requested_at"`
	ResolvedAt       string `json:"resolved_at,omitempty"`
	ApprovedAt       string `json:"approved_at,omitempty"`
}

type ProcurementResponse struct {
	Item     ProcurementRequestDTO `json:"item"`
	Replayed bool                  `json:"replayed,omitempty"`
}

type ListProcurementResponse struct {
	Items []ProcurementRequestDTO `json:"items"`
}
