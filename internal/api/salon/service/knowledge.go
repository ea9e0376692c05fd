package salonService

import (
	"context"
	"fmt"
	"strings"

	contextPkg "SalonAssistant/pkg/context"

	"github.com/sirupsen/logrus"
)

type SalonInfo struct {
	Name         string
	Address      string
	OpeningHours string
}

// KnowledgeBase feeds the extractor with the current catalog and a short
// description of the salon. It reads through the service catalog cache.
type KnowledgeBase struct {
	log  *logrus.Logger
	svc  ISalonService
	info SalonInfo
}

func NewKnowledgeBase(log *logrus.Logger, svc ISalonService, info SalonInfo) *KnowledgeBase {
	return &KnowledgeBase{log: log, svc: svc, info: info}
}

func (k *KnowledgeBase) Services(ctx context.Context) []string {
	services, err := k.svc.ListServices(ctx)
	if err != nil {
		k.warn(ctx, err, "services")
		return nil
	}
	out := make([]string, 0, len(services))
	for _, s := range services {
		out = append(out, s.Name)
	}
	return out
}

func (k *KnowledgeBase) Experts(ctx context.Context) []string {
	experts, err := k.svc.ListExperts(ctx, "")
	if err != nil {
		k.warn(ctx, err, "experts")
		return nil
	}
	out := make([]string, 0, len(experts))
	for _, e := range experts {
		out = append(out, e.Name)
	}
	return out
}

func (k *KnowledgeBase) Summary(ctx context.Context) string {
	var sb strings.Builder
	if k.info.Name != "" {
		fmt.Fprintf(&sb, "Biz %s.", k.info.Name)
	}
	if k.info.OpeningHours != "" {
		fmt.Fprintf(&sb, " %s arası açığız.", k.info.OpeningHours)
	}

	if services, err := k.svc.ListServices(ctx); err == nil && len(services) > 0 {
		items := make([]string, 0, len(services))
		for _, s := range services {
			items = append(items, fmt.Sprintf("%s (%d dk, %.0f TL)", s.Name, s.Duration, s.Price))
		}
		fmt.Fprintf(&sb, " Sunduğumuz hizmetler: %s.", strings.Join(items, ", "))
	}

	if k.info.Address != "" {
		fmt.Fprintf(&sb, " Adresimiz: %s.", k.info.Address)
	}
	return strings.TrimSpace(sb.String())
}

func (k *KnowledgeBase) warn(ctx context.Context, err error, what string) {
	k.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"error":      err.Error(),
	}).Warnf("[salon.KnowledgeBase] failed to load %s", what)
}
