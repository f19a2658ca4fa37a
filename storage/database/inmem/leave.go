package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agridesk/portal/core/leave"
)

type leaveRepository struct {
	db *DB
}

var _ leave.Repository = (*leaveRepository)(nil) // interface compliance check

func NewLeaveRepository(db *DB) *leaveRepository {
	return &leaveRepository{db: db}
}

func (repo *leaveRepository) query(match func(leave.Request) bool) []leave.Request {
	repo.db.leave.RLock()
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()
	defer repo.db.leave.RUnlock()

	reqs := make([]leave.Request, 0, len(repo.db.leave.table))
	for _, req := range repo.db.leave.table {
		if match != nil && !match(*req) {
			continue
		}
		joined := *req
		joined.Employee = repo.db.info(req.EmployeeID)
		if req.ApprovedBy.Valid {
			joined.Approver = repo.db.info(req.ApprovedBy.String)
		}
		reqs = append(reqs, joined)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs
}

func (repo *leaveRepository) QueryAllRequests(_ context.Context) ([]leave.Request, error) {
	return repo.query(nil), nil
}

func (repo *leaveRepository) QueryRequestsByEmployee(_ context.Context, employeeID string) ([]leave.Request, error) {
	return repo.query(func(req leave.Request) bool { return req.EmployeeID == employeeID }), nil
}

func (repo *leaveRepository) GetRequestByID(_ context.Context, id string) (leave.Request, error) {
	for _, req := range repo.query(nil) {
		if req.ID == id {
			return req, nil
		}
	}
	return leave.Request{}, leave.ErrNotFound
}

func (repo *leaveRepository) CreateRequest(ctx context.Context, req leave.Request) (leave.Request, error) {
	repo.db.leave.Lock()
	req.ID = uuid.NewString()
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	repo.db.leave.table[req.ID] = &req
	repo.db.leave.Unlock()

	return repo.GetRequestByID(ctx, req.ID)
}

func (repo *leaveRepository) UpdateRequest(ctx context.Context, id string, patch leave.UpdateRequest) (leave.Request, error) {
	repo.db.leave.Lock()
	req, ok := repo.db.leave.table[id]
	if !ok {
		repo.db.leave.Unlock()
		return leave.Request{}, leave.ErrNotFound
	}

	// only save set fields
	if patch.Type.Valid {
		req.Type = patch.Type.String
	}
	if patch.StartDate.Valid {
		req.StartDate = patch.StartDate.Time
	}
	if patch.EndDate.Valid {
		req.EndDate = patch.EndDate.Time
	}
	if patch.TotalDays.Valid {
		req.TotalDays = patch.TotalDays.Int
	}
	if patch.Reason.Valid {
		req.Reason = patch.Reason.String
	}
	if patch.Status.Valid {
		req.Status = patch.Status.String
	}
	if patch.ApprovedBy.Valid {
		req.ApprovedBy = patch.ApprovedBy
	}
	if patch.ApprovedAt.Valid {
		req.ApprovedAt = patch.ApprovedAt
	}
	if patch.RejectionReason.Valid {
		req.RejectionReason = patch.RejectionReason
	}
	req.UpdatedAt = time.Now().UTC()
	repo.db.leave.Unlock()

	return repo.GetRequestByID(ctx, id)
}

func (repo *leaveRepository) DeleteRequest(_ context.Context, id string) error {
	repo.db.leave.Lock()
	defer repo.db.leave.Unlock()

	if _, ok := repo.db.leave.table[id]; !ok {
		return leave.ErrNotFound
	}
	delete(repo.db.leave.table, id)
	return nil
}
