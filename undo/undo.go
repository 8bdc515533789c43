// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package undo provides the minimal command model used to make graph edits
// undoable: a Command interface, a Group that applies children as one
// unit, and a bounded Stack of applied commands.
package undo

import (
	"errors"
	"sync"
)

// Errors returned by Stack.
var (
	// ErrNothingToUndo is returned by Undo when no command was applied.
	ErrNothingToUndo = errors.New("undo: nothing to undo")

	// ErrNothingToRedo is returned by Redo when no command was undone.
	ErrNothingToRedo = errors.New("undo: nothing to redo")
)

// Command is a reversible edit.
type Command interface {
	Redo()
	Undo()
}

// Func adapts a pair of functions to Command.
type Func struct {
	RedoFunc func()
	UndoFunc func()
}

// Redo calls RedoFunc.
func (f Func) Redo() {
	if f.RedoFunc != nil {
		f.RedoFunc()
	}
}

// Undo calls UndoFunc.
func (f Func) Undo() {
	if f.UndoFunc != nil {
		f.UndoFunc()
	}
}

// Group is a parent command. Its children are redone in insertion order
// and undone in reverse order.
type Group struct {
	Text     string
	children []Command
}

// NewGroup creates an empty group.
func NewGroup(text string) *Group {
	return &Group{Text: text}
}

// Add appends a child. Adding does not apply the child.
func (g *Group) Add(c Command) {
	if c != nil {
		g.children = append(g.children, c)
	}
}

// Len returns the number of children.
func (g *Group) Len() int {
	return len(g.children)
}

// Redo applies every child.
func (g *Group) Redo() {
	for _, c := range g.children {
		c.Redo()
	}
}

// Undo reverts every child, last first.
func (g *Group) Undo() {
	for i := len(g.children) - 1; i >= 0; i-- {
		g.children[i].Undo()
	}
}

// Stack records applied commands.
//
// Thread safety: Stack is safe for concurrent use. Commands run with the
// stack lock released.
type Stack struct {
	mu     sync.Mutex
	done   []Command
	undone []Command
	limit  int
}

// NewStack creates a stack keeping at most limit commands. A limit of 0
// or less keeps everything.
func NewStack(limit int) *Stack {
	return &Stack{limit: limit}
}

// Push applies c and records it. The redo history is discarded.
func (s *Stack) Push(c Command) {
	c.Redo()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.done = append(s.done, c)
	if s.limit > 0 && len(s.done) > s.limit {
		s.done = s.done[len(s.done)-s.limit:]
	}
	s.undone = nil
}

// Undo reverts the most recently applied command.
func (s *Stack) Undo() error {
	s.mu.Lock()
	if len(s.done) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	c := s.done[len(s.done)-1]
	s.done = s.done[:len(s.done)-1]
	s.undone = append(s.undone, c)
	s.mu.Unlock()

	c.Undo()
	return nil
}

// Redo reapplies the most recently undone command.
func (s *Stack) Redo() error {
	s.mu.Lock()
	if len(s.undone) == 0 {
		s.mu.Unlock()
		return ErrNothingToRedo
	}
	c := s.undone[len(s.undone)-1]
	s.undone = s.undone[:len(s.undone)-1]
	s.done = append(s.done, c)
	s.mu.Unlock()

	c.Redo()
	return nil
}

// CanUndo reports whether Undo would succeed.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.done) > 0
}

// CanRedo reports whether Redo would succeed.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undone) > 0
}
