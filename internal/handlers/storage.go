package handlers

import (
	"context"

	"rfpintake/internal/admin"
	"rfpintake/internal/gateway"
	"rfpintake/internal/registration"
	"rfpintake/models"
)

type GatewayInterface interface {
	Perform(ctx context.Context, req gateway.Request) (gateway.Envelope, error)
}

type ConsoleInterface interface {
	Info() admin.Info
	Dashboard(ctx context.Context) (admin.Dashboard, error)

	RFPs(ctx context.Context) ([]models.RFP, error)
	RFP(ctx context.Context, id string) (models.RFP, error)
	SaveRFP(ctx context.Context, id string, form models.RFP) ([]models.RFP, error)
	RFPSubmissions(ctx context.Context, rfpID string) ([]models.Submission, error)

	Submissions(ctx context.Context, status models.ReviewStatus) ([]models.Submission, error)
	Submission(ctx context.Context, id string) (models.Submission, error)
	RateSubmission(ctx context.Context, id string, r admin.Rating) ([]models.Submission, error)

	Vendors(ctx context.Context) ([]models.Vendor, error)
	PendingVendors(ctx context.Context) (admin.PendingView, error)
	Vendor(ctx context.Context, id string) (models.Vendor, error)
	ApproveVendor(ctx context.Context, id string, confirmed bool) (admin.PendingView, error)
	DeclineVendor(ctx context.Context, id, reason string, confirmed bool) (admin.PendingView, error)
}

type SessionInterface interface {
	Login(username, password string) (admin.Session, error)
	Check(token string) (admin.Session, error)
	Logout(token string)
}

type RegistryInterface interface {
	Start() *registration.Workflow
	Get(id string) (*registration.Workflow, error)
}
