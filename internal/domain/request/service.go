package request

import "context"

type RequestService interface {
	// Create submits a request for the caller
	Create(ctx context.Context, req CreateRequestRequest) (RequestResponse, error)
	ListMine(ctx context.Context, filter RequestFilter) (ListRequestResponse, error)

	// List, Approve and Reject are admin operations
	List(ctx context.Context, filter RequestFilter) (ListRequestResponse, error)
	Approve(ctx context.Context, id string) (RequestResponse, error)
	Reject(ctx context.Context, id string) (RequestResponse, error)
}
