// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package undo

import (
	"errors"
	"slices"
	"testing"
)

func recorder(log *[]string, name string) Command {
	return Func{
		RedoFunc: func() { *log = append(*log, "redo "+name) },
		UndoFunc: func() { *log = append(*log, "undo "+name) },
	}
}

func TestGroup_Order(t *testing.T) {
	var log []string
	g := NewGroup("edit")
	g.Add(recorder(&log, "a"))
	g.Add(recorder(&log, "b"))
	g.Add(nil)

	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}

	g.Redo()
	g.Undo()

	want := []string{"redo a", "redo b", "undo b", "undo a"}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestStack_UndoRedo(t *testing.T) {
	var log []string
	s := NewStack(0)
	s.Push(recorder(&log, "a"))
	s.Push(recorder(&log, "b"))

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if err := s.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}

	want := []string{"redo a", "redo b", "undo b", "redo b"}
	if !slices.Equal(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestStack_Empty(t *testing.T) {
	s := NewStack(0)
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() = %v, want ErrNothingToUndo", err)
	}
	if err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() = %v, want ErrNothingToRedo", err)
	}
}

func TestStack_PushDiscardsRedo(t *testing.T) {
	var log []string
	s := NewStack(0)
	s.Push(recorder(&log, "a"))
	_ = s.Undo()
	s.Push(recorder(&log, "b"))

	if s.CanRedo() {
		t.Error("CanRedo() = true after Push")
	}
}

func TestStack_Limit(t *testing.T) {
	var log []string
	s := NewStack(2)
	for _, n := range []string{"a", "b", "c"} {
		s.Push(recorder(&log, n))
	}
	_ = s.Undo()
	_ = s.Undo()
	if s.CanUndo() {
		t.Error("oldest command was not dropped")
	}
}
