// Package session holds the selection state machine behind one dashboard view.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/table"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/rs/zerolog/log"
)

// Dashboard is the data side of a session
type Dashboard interface {
	GetSubOptions(ctx context.Context, topic models.Topic) ([]models.SubFilterOption, error)
	LoadTable(ctx context.Context, topic models.Topic, subFilter string) (*dashboard.Result, error)
	ExportAs(format export.Format, t *models.Table) (*export.Artifact, error)
}

// Update is the outcome of one event.
// Clipboard and Download are set only by copy and export events.
type Update struct {
	State     models.SessionState
	Clipboard *string
	Download  *export.Artifact
}

// Session is the state of one dashboard view.
// All mutation is serialised by mu; upstream calls run without holding it.
type Session struct {
	id        string
	dashboard Dashboard
	publisher publisher.ActivityPublisher

	mu          sync.Mutex
	selection   models.Selection
	subOptions  []models.SubFilterOption
	table       *models.Table
	apiCall     string
	selectedRow *int
	version     int64
	generation  uint64
	lastActive  time.Time
}

// New creates an empty session
func New(id string, d Dashboard, p publisher.ActivityPublisher) *Session {
	if p == nil {
		p = publisher.Noop{}
	}
	return &Session{
		id:         id,
		dashboard:  d,
		publisher:  p,
		subOptions: []models.SubFilterOption{},
		table:      models.NewTable(),
		lastActive: time.Now(),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// LastActive returns when the session last handled an event
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// State returns a snapshot of the session
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// View returns the current table with a query applied. The stored table is not modified.
func (s *Session) View(q table.Query) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table.Apply(s.table, q)
}

// Handle applies one event and returns the resulting state
func (s *Session) Handle(ctx context.Context, ev Event) (*Update, error) {
	metrics.Observer.IncEvent(ev.Type())
	s.touch()

	switch e := ev.(type) {
	case TopicChanged:
		return s.changeTopic(ctx, e.Topic)
	case SubFilterChanged:
		return s.changeSubFilter(ctx, e.Value)
	case CopyRequested:
		return s.copyLink(ctx)
	case ExportRequested:
		return s.export(ctx, e.Format)
	case CellEdited:
		return s.editCell(e)
	case RowSelected:
		return s.selectRow(e.Row)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

func (s *Session) changeTopic(ctx context.Context, topic models.Topic) (*Update, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.selection = models.Selection{Topic: topic}
	s.subOptions = []models.SubFilterOption{}
	s.clearTable()
	s.version++
	s.mu.Unlock()

	options, err := s.dashboard.GetSubOptions(ctx, topic)
	if err != nil {
		s.loadFailed(ctx, topic, "", err)
		return s.current(), nil
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return s.current(), nil
	}
	s.subOptions = options
	s.version++
	s.mu.Unlock()

	if topic.RequiresSubFilter() {
		return s.current(), nil
	}
	return s.load(ctx, gen, topic, "")
}

func (s *Session) changeSubFilter(ctx context.Context, value string) (*Update, error) {
	s.mu.Lock()
	topic := s.selection.Topic
	if topic.RequiresSubFilter() && value == "" {
		// cleared dropdown: drop the table and any load still in flight
		s.generation++
		s.selection.SubFilter = ""
		s.clearTable()
		s.version++
		s.mu.Unlock()
		return s.current(), nil
	}
	if !topic.RequiresSubFilter() || !hasOption(s.subOptions, value) {
		s.mu.Unlock()
		log.Debug().
			Str("session", s.id).
			Str("topic", string(topic)).
			Str("value", value).
			Msg("ignoring sub-filter outside current options")
		return s.current(), nil
	}
	s.generation++
	gen := s.generation
	s.selection.SubFilter = value
	s.clearTable()
	s.version++
	s.mu.Unlock()

	return s.load(ctx, gen, topic, value)
}

// load fetches a table and applies it if no newer selection happened meanwhile
func (s *Session) load(ctx context.Context, gen uint64, topic models.Topic, subFilter string) (*Update, error) {
	res, err := s.dashboard.LoadTable(ctx, topic, subFilter)
	if err != nil {
		s.loadFailed(ctx, topic, subFilter, err)
		return s.current(), nil
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		log.Debug().
			Str("session", s.id).
			Str("api_call", res.APICall).
			Msg("discarding stale table")
		return s.current(), nil
	}
	s.table = res.Table
	s.apiCall = res.APICall
	s.selectedRow = nil
	s.version++
	s.mu.Unlock()

	s.publish(ctx, &models.Activity{
		Type:      models.ActivityTableLoaded,
		Topic:     topic,
		SubFilter: subFilter,
		APICall:   res.APICall,
		Rows:      res.Table.Len(),
	})
	return s.current(), nil
}

// loadFailed leaves the empty table in place; upstream failures are not surfaced as event errors
func (s *Session) loadFailed(ctx context.Context, topic models.Topic, subFilter string, err error) {
	log.Warn().
		Err(err).
		Str("session", s.id).
		Str("topic", string(topic)).
		Str("sub_filter", subFilter).
		Msg("upstream load failed")

	s.publish(ctx, &models.Activity{
		Type:      models.ActivityLoadFailed,
		Topic:     topic,
		SubFilter: subFilter,
	})
}

func (s *Session) copyLink(ctx context.Context) (*Update, error) {
	s.mu.Lock()
	link := s.apiCall
	state := s.snapshot()
	s.mu.Unlock()

	s.publish(ctx, &models.Activity{
		Type:      models.ActivityLinkCopied,
		Topic:     state.Selection.Topic,
		SubFilter: state.Selection.SubFilter,
		APICall:   link,
	})
	return &Update{State: state, Clipboard: &link}, nil
}

// export renders the current table. An empty table produces no download and no error.
func (s *Session) export(ctx context.Context, format export.Format) (*Update, error) {
	s.mu.Lock()
	snapshot := s.table.Clone()
	state := s.snapshot()
	s.mu.Unlock()

	artifact, err := s.dashboard.ExportAs(format, snapshot)
	if errors.Is(err, export.ErrEmptyTable) {
		return &Update{State: state}, nil
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &models.Activity{
		Type:      models.ActivityTableExported,
		Topic:     state.Selection.Topic,
		SubFilter: state.Selection.SubFilter,
		APICall:   state.APICall,
		Format:    string(format),
		Rows:      snapshot.Len(),
	})
	return &Update{State: state, Download: artifact}, nil
}

func (s *Session) editCell(e CellEdited) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := table.Edit(s.table, e.Row, e.Column, e.Value); err != nil {
		return nil, err
	}
	s.version++
	return &Update{State: s.snapshot()}, nil
}

func (s *Session) selectRow(row *int) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row != nil {
		if err := table.CheckRow(s.table, *row); err != nil {
			return nil, err
		}
		r := *row
		row = &r
	}
	s.selectedRow = row
	s.version++
	return &Update{State: s.snapshot()}, nil
}

func (s *Session) publish(ctx context.Context, activity *models.Activity) {
	activity.SessionID = s.id
	activity.OccurredAt = time.Now().UTC()
	if err := s.publisher.Publish(ctx, activity); err != nil {
		log.Error().Err(err).Str("session", s.id).Str("type", activity.Type).Msg("failed to publish activity")
	}
}

func (s *Session) current() *Update {
	return &Update{State: s.State()}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// clearTable must be called with mu held
func (s *Session) clearTable() {
	s.table = models.NewTable()
	s.apiCall = ""
	s.selectedRow = nil
}

// snapshot must be called with mu held
func (s *Session) snapshot() models.SessionState {
	var selected *int
	if s.selectedRow != nil {
		r := *s.selectedRow
		selected = &r
	}
	return models.SessionState{
		SessionID:   s.id,
		Selection:   s.selection,
		SubOptions:  append([]models.SubFilterOption{}, s.subOptions...),
		Table:       s.table.Clone(),
		APICall:     s.apiCall,
		SelectedRow: selected,
		Version:     s.version,
	}
}

func hasOption(options []models.SubFilterOption, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}
