package langparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_Go(t *testing.T) {
	src := []byte(`package sample

import "fmt"

// Greet says hello.
func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}

func helper() {
}
`)
	r := New()
	result, err := r.ParseFile("sample.go", src)
	require.NoError(t, err)
	assert.Equal(t, "go", result.Language)

	var greet *string
	names := map[string]bool{}
	for _, d := range result.Definitions {
		names[d.Name] = true
		if d.Name == "Greet" {
			s := d.Name
			greet = &s
			assert.True(t, d.IsPublic)
			assert.True(t, d.TypeHintsOK)
			assert.Contains(t, d.Docstring, "Greet says hello")
		}
	}
	require.NotNil(t, greet)
	assert.True(t, names["helper"])
	assert.False(t, func() bool {
		for _, d := range result.Definitions {
			if d.Name == "helper" {
				return d.IsPublic
			}
		}
		return true
	}())

	require.Len(t, result.Imports, 1)
	assert.Equal(t, "fmt", result.Imports[0].Source)

	var sawModule bool
	for _, d := range result.Definitions {
		if d.Kind == "module" && d.Name == "sample" {
			sawModule = true
			assert.Equal(t, 1, d.LineStart)
		}
	}
	assert.True(t, sawModule, "expected an implicit module definition")
}

func TestParseFile_Python_TypeHints(t *testing.T) {
	src := []byte(`import os


def typed(a: int, b: str) -> bool:
    return True


def untyped(a, b):
    return a
`)
	r := New()
	result, err := r.ParseFile("sample.py", src)
	require.NoError(t, err)

	var sawTyped, sawUntyped bool
	for _, d := range result.Definitions {
		switch d.Name {
		case "typed":
			sawTyped = true
			assert.True(t, d.TypeHintsOK)
		case "untyped":
			sawUntyped = true
			assert.False(t, d.TypeHintsOK)
		}
	}
	assert.True(t, sawTyped)
	assert.True(t, sawUntyped)
	require.Len(t, result.Imports, 1)
	assert.Equal(t, "os", result.Imports[0].Source)
}

func TestParseFile_Go_StructEmbeddingAndInterface(t *testing.T) {
	src := []byte(`package shapes

type Shape interface {
	Area() float64
}

type Circle struct {
	Radius float64
}

func (c *Circle) Area() float64 {
	return c.Radius * c.Radius
}

type NamedCircle struct {
	Circle
	Name string
}

func describe(s Shape) float64 {
	return s.Area()
}

func use() float64 {
	c := Circle{Radius: 2}
	return c.Area()
}
`)
	r := New()
	result, err := r.ParseFile("shapes.go", src)
	require.NoError(t, err)

	var sawShape, sawCircle, sawNamedCircle bool
	for _, td := range result.Types {
		switch td.Name {
		case "Shape":
			sawShape = true
			assert.True(t, td.IsInterface)
			assert.Contains(t, td.Methods, "Area")
		case "Circle":
			sawCircle = true
			assert.False(t, td.IsInterface)
		case "NamedCircle":
			sawNamedCircle = true
			assert.Contains(t, td.Embeds, "Circle")
		}
	}
	assert.True(t, sawShape)
	assert.True(t, sawCircle)
	assert.True(t, sawNamedCircle)

	var sawCall bool
	for _, ref := range result.References {
		if ref.Name == "Area" && ref.Receiver == "Circle" {
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected c.Area() to resolve its receiver to Circle")
}

func TestParseFile_Go_GenericBoundReceiver(t *testing.T) {
	src := []byte(`package shapes

type Shape interface {
	Area() float64
}

func describeOne[T Shape](item T) float64 {
	return item.Area()
}
`)
	r := New()
	result, err := r.ParseFile("generic.go", src)
	require.NoError(t, err)

	var sawGenericCall bool
	for _, ref := range result.References {
		if ref.Name == "Area" {
			assert.Equal(t, "Shape", ref.Receiver)
			assert.True(t, ref.ReceiverViaGenericBound)
			sawGenericCall = true
		}
	}
	assert.True(t, sawGenericCall, "expected t.Area() to resolve through T's bound to Shape")
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	r := New()
	_, err := r.ParseFile("sample.rb", []byte("def x; end"))
	require.Error(t, err)
}
