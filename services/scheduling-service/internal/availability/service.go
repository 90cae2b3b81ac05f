package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/automation"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

var ErrNoParticipants = errors.New("participants array is required")

const (
	msgProcessing   = "Processing..."
	msgNoSlotFormat = "No slots format found"
)

// Submitter posts the availability question to the automation webhook.
type Submitter interface {
	Submit(ctx context.Context, payload automation.WebhookPayload) ([]byte, error)
}

// ExecutionResolver waits for an asynchronous automation run.
type ExecutionResolver interface {
	Resolve(ctx context.Context, executionID string) (*automation.AgentResult, error)
}

// Result is the availability response body.
type Result struct {
	Slots      []model.TimeSlot `json:"slots"`
	SessionID  string           `json:"sessionId,omitempty"`
	Message    string           `json:"message,omitempty"`
	TotalSlots *int             `json:"totalSlots,omitempty"`
	Debug      map[string]any   `json:"debug,omitempty"`
	Source     string           `json:"-"`
}

type Options struct {
	Location *time.Location
	Now      func() time.Time
	Draw     func() float64
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Service answers availability requests. It never fails: any upstream
// problem degrades to synthetic slots.
type Service struct {
	submitter  Submitter
	executions ExecutionResolver
	loc        *time.Location
	now        func() time.Time
	draw       func() float64
	metrics    *Metrics
	logger     *slog.Logger
}

func NewService(submitter Submitter, executions ExecutionResolver, opts Options) *Service {
	s := &Service{
		submitter:  submitter,
		executions: executions,
		loc:        opts.Location,
		now:        opts.Now,
		draw:       opts.Draw,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func Validate(req model.AvailabilityRequest) error {
	if len(req.Participants) == 0 {
		return ErrNoParticipants
	}
	return nil
}

func (s *Service) Resolve(ctx context.Context, req model.AvailabilityRequest) Result {
	started := time.Now()
	res := s.resolve(ctx, req)
	s.metrics.observe(res.Source, time.Since(started))
	s.logger.Info("availability resolved", "source", res.Source, "slots", len(res.Slots), "session_id", res.SessionID)
	return res
}

func (s *Service) resolve(ctx context.Context, req model.AvailabilityRequest) Result {
	window := WeekWindow(s.now().In(s.loc))
	members := req.InternalEmails()
	fallback := func(r Result) Result {
		r.Slots = SyntheticSlots(window.Start, window.End, members, s.draw)
		r.Source = SourceSynthetic
		return r
	}

	body, err := s.submitter.Submit(ctx, BuildPayload(req, window, s.loc))
	if err != nil {
		var se *automation.StatusError
		if errors.As(err, &se) {
			s.logger.Error("availability webhook returned an error", "status", se.StatusCode, "body", se.Body)
		} else {
			s.logger.Error("availability webhook unreachable", "err", err)
		}
		return fallback(Result{})
	}

	reply, err := automation.ClassifyReply(body)
	if err != nil {
		s.logger.Warn("availability webhook reply unreadable", "err", err)
		return fallback(Result{})
	}
	s.logger.Debug("availability webhook reply classified", "kind", reply.Kind.String())

	switch reply.Kind {
	case automation.ReplyEncodedSlots, automation.ReplyRawSlots:
		slots := FromRaw(reply.RawSlots, members, s.loc)
		source := SourceRawSlots
		if reply.Kind == automation.ReplyEncodedSlots {
			source = SourceEncodedSlots
		}
		return Result{
			Slots:     slots,
			SessionID: reply.SessionID,
			Message:   fmt.Sprintf("Found %d available time slots", len(slots)),
			Source:    source,
		}

	case automation.ReplyCanonicalSlots:
		sessionID := firstNonEmpty(reply.SessionID, req.SessionID)
		if len(reply.Slots) == 0 {
			s.logger.Warn("availability webhook returned an empty slot list")
			return fallback(Result{SessionID: sessionID})
		}
		return Result{Slots: Normalize(reply.Slots), SessionID: sessionID, Source: SourceCanonicalSlots}

	case automation.ReplyExecution:
		agent, err := s.executions.Resolve(ctx, reply.ExecutionID)
		if err == nil && agent != nil {
			return s.fromAgent(agent, firstNonEmpty(reply.SessionID, req.SessionID), members, fallback)
		}
		s.logger.Warn("availability execution not resolved", "execution_id", reply.ExecutionID, "err", err)
	}

	if reply.SessionID != "" {
		return fallback(Result{
			SessionID: reply.SessionID,
			Message:   firstNonEmpty(reply.Text, msgProcessing),
			Debug:     map[string]any{"upstreamResponse": reply.Raw},
		})
	}
	if reply.Kind == automation.ReplyUnrecognized {
		s.logger.Warn("availability webhook reply in no known format, using synthetic slots")
	}
	return fallback(Result{})
}

// agentSlots is the shape an agent reply may carry slots in when it did not
// go through the slot tool.
type agentSlots struct {
	Slots          []model.TimeSlot     `json:"slots"`
	AvailableSlots []automation.RawSlot `json:"availableSlots"`
	Output         json.RawMessage      `json:"output"`
	Text           string               `json:"text"`
}

func (s *Service) fromAgent(agent *automation.AgentResult, sessionID string, members []string, fallback func(Result) Result) Result {
	sessionID = firstNonEmpty(agent.SessionID, sessionID)

	var slots []model.TimeSlot
	var total *int
	var parsed agentSlots
	_ = json.Unmarshal(agent.Raw, &parsed)

	switch {
	case agent.Tool != nil:
		slots = FromRaw(agent.Tool.AvailableSlots, members, s.loc)
		total = agent.Tool.TotalSlots
	case len(parsed.Slots) > 0:
		slots = Normalize(parsed.Slots)
	case len(outputSlots(parsed.Output)) > 0:
		slots = Normalize(outputSlots(parsed.Output))
	case len(parsed.AvailableSlots) > 0:
		slots = FromRaw(parsed.AvailableSlots, members, s.loc)
	}

	if len(slots) > 0 {
		return Result{Slots: slots, SessionID: sessionID, Message: agent.Text, TotalSlots: total, Source: SourceExecution}
	}

	s.logger.Warn("agent reply carried no slots", "step", agent.Step)
	var outputText string
	_ = json.Unmarshal(parsed.Output, &outputText)
	return fallback(Result{
		SessionID: sessionID,
		Message:   firstNonEmpty(agent.Text, outputText, msgNoSlotFormat),
		Debug:     map[string]any{"rawResult": agent.Raw},
	})
}

func outputSlots(output json.RawMessage) []model.TimeSlot {
	var o struct {
		Slots []model.TimeSlot `json:"slots"`
	}
	if err := json.Unmarshal(output, &o); err != nil {
		return nil
	}
	return o.Slots
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
