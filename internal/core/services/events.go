package services

import (
	"context"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// notifier publishes document events and records activity entries.
// Both are best-effort: failures are logged and never returned.
type notifier struct {
	events   driven.EventBus
	activity driven.ActivityStore
}

// publish sends event to the pipeline topic and the dashboard topic.
func (n notifier) publish(ctx context.Context, eventType domain.EventType, doc *domain.Document) {
	if n.events == nil || doc == nil {
		return
	}

	snapshot := *doc
	event := domain.Event{
		Type:       eventType,
		PipelineID: doc.PipelineID,
		DocumentID: doc.ID,
		Document:   &snapshot,
		Timestamp:  time.Now().UTC(),
	}

	for _, topic := range []string{domain.PipelineTopic(doc.PipelineID), domain.DashboardTopic} {
		if err := n.events.Publish(ctx, topic, event); err != nil {
			logger.Warn("Failed to publish %s for document %s on %s: %v", eventType, doc.ID, topic, err)
		}
	}
}

// record appends an activity entry.
func (n notifier) record(ctx context.Context, activityType domain.ActivityType, message, pipelineID, documentID string) {
	if n.activity == nil {
		return
	}

	entry := &domain.Activity{
		Type:       activityType,
		Message:    message,
		PipelineID: pipelineID,
		DocumentID: documentID,
	}
	if err := n.activity.RecordActivity(ctx, entry); err != nil {
		logger.Warn("Failed to record %s activity: %v", activityType, err)
	}
}
