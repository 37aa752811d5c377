package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type cli struct {
	t     *testing.T
	flags []string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, flags: []string{
		"--store", "leveldb",
		"--leveldb-path", filepath.Join(dir, "ledger"),
		"--events-out", filepath.Join(dir, "events.jsonl"),
		"--log-events=false",
		"--log-level", "error",
	}}
}

func (c *cli) run(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(append([]string{}, args...), c.flags...))
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func (c *cli) must(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "walienpool %s", strings.Join(args, " "))
	return out
}

func TestSaleLifecycleThroughCLI(t *testing.T) {
	c := newCLI(t)

	admin := c.must("dev", "wallet")
	buyer := c.must("dev", "wallet")
	usdc := c.must("dev", "create-mint", "--authority", admin, "--decimals", "6")
	walien := c.must("dev", "create-mint", "--authority", admin, "--decimals", "9")
	c.must("dev", "mint-to", "--mint", usdc, "--to", admin, "--authority", admin, "--amount", "1")
	c.must("dev", "mint-to", "--mint", usdc, "--to", buyer, "--authority", admin, "--amount", "5000000")
	c.must("dev", "mint-to", "--mint", walien, "--to", admin, "--authority", admin, "--amount", "1000000000000000000")

	c.must("init",
		"--admin", admin,
		"--stable-mint", usdc,
		"--available", "10000",
		"--tick-upper=-61081",
		"--liquidity", "106167919507750",
		"--sqrt-price", "18446744073709552",
	)
	c.must("admin", "sale-token", "--admin", admin, "--mint", walien)
	c.must("admin", "deposit", "--admin", admin, "--amount", "1000000000")

	_, err := c.run("buy", "--buyer", buyer, "--usdc", "1")
	require.Error(t, err, "sale starts closed")

	c.must("admin", "sale-active", "--admin", admin)

	quote := c.must("quote", "--usdc", "1")
	require.Contains(t, quote, "walien out:  999.990581043")

	var bought struct {
		PositionIndex uint64 `json:"position_index"`
		WalienAmount  uint64 `json:"walien_amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(c.must("buy", "--buyer", buyer, "--usdc", "1")), &bought))
	require.Equal(t, uint64(1), bought.PositionIndex)
	require.Equal(t, uint64(999_990_581_043), bought.WalienAmount)

	summary := c.must("show", "summary", "--owner", buyer)
	require.Contains(t, summary, `"total_stable_locked": 1000000`)

	c.must("audit")

	_, err = c.run("withdraw", "--owner", admin, "--index", "1")
	require.Error(t, err)
	c.must("withdraw", "--owner", buyer, "--index", "1")
	_, err = c.run("show", "position", "--index", "1")
	require.Error(t, err)

	windows := c.must("report", "--in", c.flags[5], "--window", "1h")
	var window struct {
		BuyCount     uint64 `json:"buy_count"`
		StableVolume string `json:"stable_volume"`
	}
	require.NoError(t, json.Unmarshal([]byte(windows), &window))
	require.Equal(t, uint64(1), window.BuyCount)
	require.Equal(t, "1.000000", window.StableVolume)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{"1", 6, 1_000_000, false},
		{"25.5", 6, 25_500_000, false},
		{"0.000001", 6, 1, false},
		{"0.0000001", 6, 0, true},
		{"-1", 6, 0, true},
		{"abc", 6, 0, true},
		{"18446744073.709551616", 9, 0, true},
		{"1000000000", 9, 1_000_000_000_000_000_000, false},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in, tc.decimals)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseAmount(%q) expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseAmount(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := formatAmount(999_990_581_043, 9); got != "999.990581043" {
		t.Fatalf("formatAmount = %q", got)
	}
	if got := formatAmount(1_500_000, 6); got != "1.500000" {
		t.Fatalf("formatAmount = %q", got)
	}
}
