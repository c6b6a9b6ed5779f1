// Copyright © Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSetBasics(t *testing.T) {
	a := assert.New(t)

	s := NewStringSet("b", "a")
	a.True(s.Contains("a"))
	a.True(s.Contains("b"))
	a.False(s.Contains("c"))

	s.Add("c")
	a.True(s.Contains("c"))

	s.Remove("a")
	a.False(s.Contains("a"))
	a.Equal(2, len(s))

	// removing an absent member is a no-op
	s.Remove("zzz")
	a.Equal(2, len(s))
}

func TestStringSetSubset(t *testing.T) {
	a := assert.New(t)

	a.True(NewStringSet().IsSubsetOf(NewStringSet()))
	a.True(NewStringSet("a").IsSubsetOf(NewStringSet("a", "b")))
	a.True(NewStringSet("a", "b").IsSubsetOf(NewStringSet("a", "b")))
	a.False(NewStringSet("a", "c").IsSubsetOf(NewStringSet("a", "b")))
}

func TestStringSetMarshalSorted(t *testing.T) {
	a := assert.New(t)

	s := NewStringSet("zeta", "alpha", "mid")
	serialized, err := json.Marshal(s)
	a.NoError(err)
	a.Equal(`["alpha","mid","zeta"]`, string(serialized))

	var parsed StringSet
	a.NoError(json.Unmarshal([]byte(`["x","y"]`), &parsed))
	a.Equal(NewStringSet("x", "y"), parsed)
}

func TestStringSetClone(t *testing.T) {
	a := assert.New(t)

	s := NewStringSet("a", "b")
	clone := s.Clone()
	clone.Remove("a")

	a.True(s.Contains("a"))
	a.False(clone.Contains("a"))
}
