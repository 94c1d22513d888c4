package architecture

import (
	"reflect"
	"testing"
)

func paymentGraph() *Graph {
	return &Graph{
		Components: []Component{
			{Name: "WebApp", Type: "frontend", Description: "Customer-facing storefront"},
			{Name: "AuthService", Type: "authentication_service", Description: "Handles credential verification"},
			{Name: "OrderDB", Type: "database", Description: "Stores orders and payment references"},
		},
		Relationships: []Relationship{
			{Source: "WebApp", Target: "AuthService", DataFlow: "login credentials"},
			{Source: "WebApp", Target: "OrderDB", DataFlow: "order queries"},
			{Source: "AuthService", Target: "OrderDB", DataFlow: "session lookups"},
		},
	}
}

// TestComponentByName looks up components that exist and one that doesn't.
func TestComponentByName(t *testing.T) {
	g := paymentGraph()

	c, ok := g.ComponentByName("AuthService")
	if !ok {
		t.Fatal("Expected AuthService to be found")
	}
	if c.Type != "authentication_service" {
		t.Errorf("Expected type authentication_service, got %q", c.Type)
	}

	if _, ok := g.ComponentByName("Nonexistent"); ok {
		t.Error("Expected lookup of unknown component to fail")
	}
}

// TestNeighbours_BothDirections verifies neighbours are collected from both
// incoming and outgoing edges, deduplicated, and sorted.
func TestNeighbours_BothDirections(t *testing.T) {
	g := paymentGraph()
	// Add a duplicate edge between the same pair (distinct flow).
	g.Relationships = append(g.Relationships, Relationship{
		Source: "WebApp", Target: "AuthService", DataFlow: "token refresh",
	})

	got := g.Neighbours("AuthService")
	want := []string{"OrderDB", "WebApp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbours(AuthService) = %v, want %v", got, want)
	}

	if n := g.ConnectionCount("AuthService"); n != 2 {
		t.Errorf("ConnectionCount(AuthService) = %d, want 2", n)
	}
}

// TestNeighbours_SelfLoop verifies a self-referencing edge does not count a
// component as its own neighbour.
func TestNeighbours_SelfLoop(t *testing.T) {
	g := &Graph{
		Relationships: []Relationship{
			{Source: "Cache", Target: "Cache", DataFlow: "eviction callbacks"},
			{Source: "Cache", Target: "Backend", DataFlow: "cache fills"},
		},
	}

	got := g.Neighbours("Cache")
	if !reflect.DeepEqual(got, []string{"Backend"}) {
		t.Errorf("Neighbours(Cache) = %v, want [Backend]", got)
	}
}

// TestEmptyGraph verifies nil and empty graphs behave as valid, connectionless input.
func TestEmptyGraph(t *testing.T) {
	var nilGraph *Graph
	if !nilGraph.IsEmpty() {
		t.Error("Expected nil graph to be empty")
	}
	if got := nilGraph.Neighbours("anything"); len(got) != 0 {
		t.Errorf("Expected no neighbours on nil graph, got %v", got)
	}
	if _, ok := nilGraph.ComponentByName("anything"); ok {
		t.Error("Expected no component on nil graph")
	}

	empty := &Graph{}
	if !empty.IsEmpty() {
		t.Error("Expected zero-value graph to be empty")
	}
	if n := empty.ConnectionCount("WebApp"); n != 0 {
		t.Errorf("Expected 0 connections on empty graph, got %d", n)
	}
}
