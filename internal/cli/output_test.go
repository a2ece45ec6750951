// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-smpc.
//
// go-smpc is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"bytes"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-smpc/pkg/aggregation"
	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestPrinter_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter("table", &buf)

	s, err := arithmetic.NewShare(big.NewInt(1), big.NewInt(7))
	require.NoError(t, err)

	assert.Error(t, p.PrintShares([]*arithmetic.Share{s}, false))
	assert.Error(t, p.PrintShare(s))
	assert.Error(t, p.PrintSecret(big.NewInt(1)))
	assert.Error(t, p.PrintSuccess("ok"))

	require.NoError(t, p.PrintError(errors.New("boom")))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter("json", &buf)

	require.NoError(t, p.PrintError(errors.New("boom")))
	assert.JSONEq(t, `{"status":"error","error":"boom"}`, buf.String())

	buf.Reset()
	require.NoError(t, p.PrintSuccess("done"))
	assert.JSONEq(t, `{"status":"success","message":"done"}`, buf.String())

	buf.Reset()
	s, err := arithmetic.NewShare(big.NewInt(3), big.NewInt(7))
	require.NoError(t, err)
	require.NoError(t, p.PrintShare(s))
	assert.JSONEq(t, `{"share":{"value":"3","prime":"7"}}`, buf.String())
}

func TestPrinter_Result(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	res := &aggregation.Result{
		Study:  id,
		Bins:   []string{"a", "b"},
		Totals: map[string]*big.Int{"a": big.NewInt(4), "b": big.NewInt(6)},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter("text", &buf).PrintResult(res))
	assert.Equal(t, "Study: "+id.String()+"\n  a: 4\n  b: 6\n", buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter("json", &buf).PrintResult(res))
	assert.JSONEq(t, `{"study":"`+id.String()+`","totals":{"a":"4","b":"6"}}`, buf.String())
}
