package reading

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

// Session walks one reader through a story graph and records the path they
// take. Every choice records an entry for the part it was made on. Landing on
// an ending records one more entry for the ending, without a choice. Parts
// may repeat when the graph loops; the path is not deduplicated.
type Session struct {
	ID      uuid.UUID
	UserID  int
	StoryID int

	mu      sync.Mutex
	graph   *Graph
	current *models.StoryPart
	path    models.PathEntries
	ended   bool
	started bool
	now     func() time.Time
	touched time.Time
}

func NewSession(userID int, graph *Graph) *Session {
	return &Session{
		ID:      uuid.New(),
		UserID:  userID,
		StoryID: graph.StoryID,
		graph:   graph,
		now:     time.Now,
		touched: time.Now(),
	}
}

// Start positions the session on the story's start part. A start part that
// is also an ending finishes the session straight away.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errcodes.ValidationError("This reading session has already started.")
	}
	if s.graph.Start == nil {
		return errcodes.ValidationError("This story has no start part.")
	}

	s.started = true
	s.touched = s.now()
	s.current = s.graph.Start
	if s.current.IsEnding {
		s.arrive(s.current)
	}
	return nil
}

// Choose follows a choice from the current part.
func (s *Session) Choose(choiceID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return errcodes.ValidationError("This reading session hasn't started.")
	}
	if s.ended {
		return errcodes.ValidationError("This reading session has ended.")
	}

	choice := s.graph.choice(s.current, choiceID)
	if choice == nil {
		return errcodes.ValidationError("That choice isn't available here.")
	}

	now := s.now()
	s.touched = now
	choiceText := choice.ChoiceText
	content := s.current.Content
	s.path = append(s.path, models.PathEntry{
		PartID:      s.current.ID,
		ChoiceID:    &choice.ID,
		ChoiceText:  &choiceText,
		PartContent: &content,
		Timestamp:   now,
	})

	if choice.IsTerminal() {
		s.ended = true
		return nil
	}

	next, ok := s.graph.Parts[*choice.NextPartID]
	if !ok {
		// The target was outside the loaded graph, which only happens when
		// the story is edited mid load. Treat it like a terminal choice.
		s.ended = true
		return nil
	}

	s.current = next
	if next.IsEnding {
		s.arrive(next)
	}
	return nil
}

// arrive records the choice-less entry for an ending and ends the session.
func (s *Session) arrive(part *models.StoryPart) {
	content := part.Content
	s.path = append(s.path, models.PathEntry{
		PartID:      part.ID,
		PartContent: &content,
		Timestamp:   s.now(),
	})
	s.ended = true
}

// State is a snapshot of a session.
type State struct {
	ID          uuid.UUID          `json:"id"`
	StoryID     int                `json:"story_id"`
	Current     *models.StoryPart  `json:"current"`
	Path        models.PathEntries `json:"path"`
	DisplayPath models.PathEntries `json:"display_path"`
	Ended       bool               `json:"ended"`
}

func (s *Session) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := make(models.PathEntries, len(s.path))
	copy(path, s.path)
	return &State{
		ID:          s.ID,
		StoryID:     s.StoryID,
		Current:     s.current,
		Path:        path,
		DisplayPath: path.Dedupe(),
		Ended:       s.ended,
	}
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
