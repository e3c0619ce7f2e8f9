package inactivity

import (
	"fmt"
	"strings"
	"sync"
)

// ActivityKind names a user interaction. Only the qualifying kinds reset a Monitor.
type ActivityKind string

const (
	PointerDown ActivityKind = "pointerdown"
	KeyDown     ActivityKind = "keydown"
	Scroll      ActivityKind = "scroll"
	TouchStart  ActivityKind = "touchstart"
	Click       ActivityKind = "click"
)

// QualifyingKinds is the complete set of interactions that count as user activity.
var QualifyingKinds = []ActivityKind{PointerDown, KeyDown, Scroll, TouchStart, Click}

func ParseActivityKind(value string) (ActivityKind, error) {
	kind := ActivityKind(strings.ToLower(strings.TrimSpace(value)))
	for _, k := range QualifyingKinds {
		if k == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown activity kind %q", value)
}

type ActivityListener func(kind ActivityKind)

// Subscription identifies a listener registered with an ActivitySource.
type Subscription uint64

// ActivitySource delivers interaction signals to subscribed listeners.
type ActivitySource interface {
	Subscribe(kinds []ActivityKind, listener ActivityListener) Subscription
	Unsubscribe(sub Subscription)
}

// Broadcaster is an ActivitySource fed by Emit. Listeners run on the emitting
// goroutine, outside the broadcaster's lock.
type Broadcaster struct {
	mu        sync.Mutex
	next      Subscription
	listeners map[Subscription]subscriber
}

type subscriber struct {
	kinds    map[ActivityKind]struct{}
	listener ActivityListener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[Subscription]subscriber)}
}

func (b *Broadcaster) Subscribe(kinds []ActivityKind, listener ActivityListener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := make(map[ActivityKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}

	b.next++
	b.listeners[b.next] = subscriber{kinds: set, listener: listener}
	return b.next
}

func (b *Broadcaster) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, sub)
}

// Emit delivers kind to every listener subscribed to it and returns how many were notified.
func (b *Broadcaster) Emit(kind ActivityKind) int {
	b.mu.Lock()
	targets := make([]ActivityListener, 0, len(b.listeners))
	for _, s := range b.listeners {
		if _, ok := s.kinds[kind]; ok {
			targets = append(targets, s.listener)
		}
	}
	b.mu.Unlock()

	for _, listener := range targets {
		listener(kind)
	}
	return len(targets)
}

// Subscribers returns the number of registered listeners.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
