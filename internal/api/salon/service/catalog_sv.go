package salonService

import (
	"context"

	"SalonAssistant/internal/api/salon"
	"SalonAssistant/internal/entity"
)

func (s *salonService) ListServices(ctx context.Context) ([]salon.ServiceResponse, error) {
	services, _, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]salon.ServiceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, salon.ServiceResponse{
			Name:        svc.Name,
			Description: svc.Description,
			Duration:    svc.DurationMinutes,
			Price:       svc.Price,
		})
	}
	return out, nil
}

// ListExperts returns every active expert, or only those offering
// serviceType when it is set.
func (s *salonService) ListExperts(ctx context.Context, serviceType string) ([]salon.ExpertResponse, error) {
	var experts []entity.Expert
	if serviceType == "" {
		_, all, err := s.catalog(ctx)
		if err != nil {
			return nil, err
		}
		experts = all
	} else {
		service, all, err := s.resolveService(ctx, serviceType)
		if err != nil {
			return nil, err
		}
		experts = qualified(all, service.Name)
	}

	out := make([]salon.ExpertResponse, 0, len(experts))
	for _, e := range experts {
		specialties := e.Specialties
		if specialties == nil {
			specialties = []string{}
		}
		out = append(out, salon.ExpertResponse{Name: e.FullName, Specialties: specialties})
	}
	return out, nil
}

func (s *salonService) CheckCampaigns(ctx context.Context, customerID int64) ([]salon.CampaignResponse, error) {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	campaigns, err := client.Catalog.ListActiveCampaigns(ctx, s.today().Format(dateLayout))
	if err != nil {
		return nil, err
	}

	returning := false
	if customerID > 0 {
		if customer, err := client.Customers.GetByID(ctx, customerID); err == nil {
			returning = customer.TotalAppointments > 0
		}
	}

	out := make([]salon.CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		if returning && firstVisitOnly(c) {
			continue
		}
		out = append(out, salon.CampaignResponse{
			Title:       c.Title,
			Description: c.Description,
			Discount:    c.DiscountRate,
			Code:        c.Code,
			EndDate:     c.EndDate,
		})
	}
	return out, nil
}

// firstVisitOnly marks campaigns that only new customers can use.
func firstVisitOnly(c entity.Campaign) bool {
	return containsFold(c.Title, "ilk randevu") || containsFold(c.Description, "ilk randevu")
}
