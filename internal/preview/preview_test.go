// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	markdown := "# Integrals\n\nThe area under $f$.\n\n```go\nfmt.Println(1)\n```"

	got, err := Render("lecture-04", markdown)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "<!DOCTYPE html>"))
	assert.Contains(t, got, "<title>lecture-04</title>")
	assert.Contains(t, got, "Integrals")
	assert.Contains(t, got, "</h1>")
	assert.Contains(t, got, "fmt.Println")
}

func TestRender_EmptyInput(t *testing.T) {
	got, err := Render("empty", "")
	require.NoError(t, err)
	assert.Contains(t, got, "<title>empty</title>")
}
