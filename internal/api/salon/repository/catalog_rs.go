package salonRepository

import (
	"context"

	"SalonAssistant/internal/entity"
	contextPkg "SalonAssistant/pkg/context"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type ExpertDB struct {
	ID          int64  `db:"id"`
	FullName    string `db:"full_name"`
	Specialties string `db:"specialties"`
	IsActive    bool   `db:"is_active"`
}

func (r *catalogRepository) ListServices(c context.Context) ([]entity.Service, error) {
	var services []entity.Service
	if err := sqlx.SelectContext(c, r.q, &services, queryListServices); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("Failed to list services")
		return nil, err
	}
	return services, nil
}

func (r *catalogRepository) ListExperts(c context.Context) ([]entity.Expert, error) {
	requestID := contextPkg.GetRequestID(c)

	var rows []ExpertDB
	if err := sqlx.SelectContext(c, r.q, &rows, queryListExperts); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list experts")
		return nil, err
	}

	experts := make([]entity.Expert, 0, len(rows))
	for _, row := range rows {
		var specialties []string
		if err := jsoniter.UnmarshalFromString(row.Specialties, &specialties); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"expert_id":  row.ID,
				"error":      err.Error(),
			}).Warn("Expert specialties are not valid JSON")
		}
		experts = append(experts, entity.Expert{
			ID:          row.ID,
			FullName:    row.FullName,
			Specialties: specialties,
			IsActive:    row.IsActive,
		})
	}
	return experts, nil
}

func (r *catalogRepository) ListActiveCampaigns(c context.Context, today string) ([]entity.Campaign, error) {
	query, args, err := sqlx.Named(queryListActiveCampaigns, map[string]interface{}{"today": today})
	if err != nil {
		return nil, err
	}
	query = r.q.Rebind(query)

	var campaigns []entity.Campaign
	if err := sqlx.SelectContext(c, r.q, &campaigns, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("Failed to list active campaigns")
		return nil, err
	}
	return campaigns, nil
}
