package cron

import (
	"context"
	"time"

	"github.com/homeward/settlement-backend/internal/memberships"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

type membershipCharger interface {
	ChargeDue(ctx context.Context, now time.Time) (memberships.ChargeSummary, error)
}

type MembershipPaymentJobParams struct {
	Logger      *logger.Logger
	Memberships membershipCharger
}

// NewMembershipPaymentJob charges every membership tier whose due date has passed.
func NewMembershipPaymentJob(params MembershipPaymentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Memberships == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "membership service required")
	}
	return &membershipPaymentJob{
		logg:        params.Logger,
		memberships: params.Memberships,
		now:         time.Now,
	}, nil
}

type membershipPaymentJob struct {
	logg        *logger.Logger
	memberships membershipCharger
	now         func() time.Time
}

func (j *membershipPaymentJob) Name() string { return "membership-payments" }

func (j *membershipPaymentJob) Run(ctx context.Context) error {
	summary, err := j.memberships.ChargeDue(ctx, j.now().UTC())
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"due":     summary.Due,
		"charged": summary.Charged,
		"failed":  summary.Failed,
	}), "membership charges submitted")
	return err
}
