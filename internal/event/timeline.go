// Package event manipulates the management event list of an experiment (planting, fertilizer,
// organic matter, ...) one event type at a time.
package event

import (
	"strconv"
)

// Common event types.
const (
	TypePlanting      = "planting"
	TypeFertilizer    = "fertilizer"
	TypeOrganicMatter = "organic_matter"
)

// Event is one management event. "event" holds the type and "date" the AgMIP date.
type Event map[string]string

// Timeline walks the events of one type in list order. The cursor points at the current event of
// the selected type, or past the end of the list when there is none left.
type Timeline struct {
	events    []Event
	eventType string
	next      int
	template  Event
}

// New returns a timeline over events positioned at the first event of eventType.
func New(events []Event, eventType string) *Timeline {
	tl := &Timeline{events: events, next: -1}
	tl.SetType(eventType)
	return tl
}

// SetType selects another event type and moves the cursor to its first event.
func (tl *Timeline) SetType(eventType string) {
	tl.eventType = eventType
	tl.next = -1
	tl.advance()
	tl.resetTemplate()
}

// Type returns the selected event type.
func (tl *Timeline) Type() string {
	return tl.eventType
}

// Events returns the event list, including insertions and removals.
func (tl *Timeline) Events() []Event {
	return tl.events
}

// Exists reports whether the cursor is on an event.
func (tl *Timeline) Exists() bool {
	return tl.next >= 0 && tl.next < len(tl.events)
}

// Current returns the event under the cursor, or nil.
func (tl *Timeline) Current() Event {
	if !tl.Exists() {
		return nil
	}
	return tl.events[tl.next]
}

// Remove deletes the current event and moves to the next one of the selected type.
func (tl *Timeline) Remove() {
	if !tl.Exists() {
		return
	}
	tl.events = append(tl.events[:tl.next], tl.events[tl.next+1:]...)
	tl.next--
	tl.advance()
}

// Update sets key on the current event. Without a current event a new one is inserted in date
// order (when key is "date") and filled from the template before key is set. With toNext the
// cursor then moves to the following event of the selected type.
func (tl *Timeline) Update(key, value string, useTemplate, toNext bool) {
	if tl.Exists() {
		tl.events[tl.next][key] = value
	} else {
		date := ""
		if key == "date" {
			date = value
		}
		ev := tl.Add(date, useTemplate)
		for k, v := range tl.template {
			ev[k] = v
		}
		ev[key] = value
	}
	if toNext {
		tl.advance()
	}
}

// Add inserts a new event of the selected type before the first later-dated event and leaves the
// cursor on it. An event without a usable date goes to the end of the list.
func (tl *Timeline) Add(date string, useTemplate bool) Event {
	var ev Event
	if useTemplate {
		ev = tl.template.clone()
	} else {
		ev = Event{"event": tl.eventType}
	}
	if date != "" {
		ev["date"] = date
	} else {
		delete(ev, "date")
	}
	tl.next = tl.insertIndex(date)
	tl.events = append(tl.events, nil)
	copy(tl.events[tl.next+1:], tl.events[tl.next:])
	tl.events[tl.next] = ev
	return ev
}

func (tl *Timeline) advance() {
	for i := tl.next + 1; i < len(tl.events); i++ {
		if tl.events[i]["event"] == tl.eventType {
			tl.next = i
			return
		}
	}
	tl.next = len(tl.events)
}

func (tl *Timeline) resetTemplate() {
	tl.template = Event{}
	if tl.Exists() {
		for k, v := range tl.events[tl.next] {
			tl.template[k] = v
		}
	}
	tl.template["event"] = tl.eventType
}

func (tl *Timeline) insertIndex(date string) int {
	day, err := strconv.Atoi(date)
	if err != nil {
		return len(tl.events)
	}
	start := 0
	if tl.Exists() {
		start = tl.next
	}
	for i := start; i < len(tl.events); i++ {
		other, err := strconv.Atoi(tl.events[i]["date"])
		if err != nil {
			continue
		}
		if day < other {
			return i
		}
	}
	return len(tl.events)
}

func (e Event) clone() Event {
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
