package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateBatchRequest struct {
	ItemKind      string `json:"item_kind"`
	TotalQuantity int64  `json:"total_quantity"`
	MetadataRef   string `json:"metadata_ref"`
}

type GrantAuthorityRequest struct {
	DelegateID string `json:"delegate_id"`
	Granted    bool   `json:"granted"`
}

type AssetBatchDTO struct {
	AssetID           uint64 `json:"asset_id"`
	ItemKind          string `json:"item_kind"`
	TotalQuantity     int64  `json:"total_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	Status            string `json:"status"`
	HolderID          string `json:"holder_id"`
	WardName          string `json:"ward_name,omitempty"`
	PatientID         string `json:"patient_id,omitempty"`
	MetadataRef       string `json:"metadata_ref,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

type CreateBatchResponse struct {
	Item AssetBatchDTO `json:"item"`
}

type GetBatchResponse struct {
	Item AssetBatchDTO `json:"item"`
}

type ListBatchesResponse struct {
	Items []AssetBatchDTO `json:"items"`
}
