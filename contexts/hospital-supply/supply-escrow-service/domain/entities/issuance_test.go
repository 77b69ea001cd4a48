package entities

import "testing"

func TestIssuanceStageDerivation(t *testing.T) {
	cases := []struct {
		name    string
		request IssuanceRequest
		stage   IssuanceStage
	}{
		{"fresh request", IssuanceRequest{}, IssuanceStagePending},
		{"store approved", IssuanceRequest{StoreApproved: true}, IssuanceStageStoreApproved},
		{"both approved", IssuanceRequest{StoreApproved: true, AdminApproved: true}, IssuanceStageBothApproved},
		{"issued", IssuanceRequest{StoreApproved: true, AdminApproved: true, Issued: true}, IssuanceStageIssued},
		{"cancelled wins over approvals", IssuanceRequest{StoreApproved: true, AdminApproved: true, Cancelled: true}, IssuanceStageCancelled},
		{"cancelled fresh", IssuanceRequest{Cancelled: true}, IssuanceStageCancelled},
	}

	for _, tc := range cases {
		if got := tc.request.Stage(); got != tc.stage {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.stage, got)
		}
	}
}

func TestIssuanceReadyToIssue(t *testing.T) {
	ready := IssuanceRequest{StoreApproved: true, AdminApproved: true}
	if !ready.ReadyToIssue() {
		t.Fatalf("expected both-approved request to be ready")
	}
	if (IssuanceRequest{StoreApproved: true}).ReadyToIssue() {
		t.Fatalf("store approval alone must not be ready")
	}
	if (IssuanceRequest{StoreApproved: true, AdminApproved: true, Cancelled: true}).ReadyToIssue() {
		t.Fatalf("cancelled request must not be ready")
	}
	if (IssuanceRequest{StoreApproved: true, AdminApproved: true, Issued: true}).ReadyToIssue() {
		t.Fatalf("issued request must not be ready again")
	}
}

func TestIssuanceTerminal(t *testing.T) {
	if (IssuanceRequest{StoreApproved: true, AdminApproved: true}).Terminal() {
		t.Fatalf("approved request is not terminal")
	}
	if !(IssuanceRequest{Issued: true}).Terminal() {
		t.Fatalf("issued request is terminal")
	}
	if !(IssuanceRequest{Cancelled: true}).Terminal() {
		t.Fatalf("cancelled request is terminal")
	}
}
