package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"driverlib-go/errcode"
	"driverlib-go/services/config"
	"driverlib-go/types"
	"driverlib-go/x/mathx"
)

func newTestConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	board, err := config.Lookup("fa5510")
	if err != nil {
		t.Fatal(err)
	}
	tg, err := newSimTarget(board)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return newConsole(tg, &out), &out
}

// runLine executes one console line and decodes its JSON output into v.
func runLine(t *testing.T, c *console, out *bytes.Buffer, line string, v any) {
	t.Helper()
	out.Reset()
	if err := c.line(context.Background(), line); err != nil {
		t.Fatalf("%q: %v (output %s)", line, err, out.String())
	}
	if v == nil {
		return
	}
	if err := json.Unmarshal(out.Bytes(), v); err != nil {
		t.Fatalf("%q: bad output %q: %v", line, out.String(), err)
	}
}

func TestConsoleADCRead(t *testing.T) {
	c, out := newTestConsole(t)
	runLine(t, c, out, "sim input 3 512", nil)

	var smp types.ADCSample
	runLine(t, c, out, "adc read 3 4", &smp)
	if smp.Channel != 3 || smp.Raw != 512 || smp.N != 4 || smp.StdDev != 0 {
		t.Fatalf("sample = %+v", smp)
	}
	if want := mathx.Scale(512, 0x3FF, 2500); smp.MilliV != want {
		t.Fatalf("mV = %d, want %d", smp.MilliV, want)
	}
}

func TestConsoleADCState(t *testing.T) {
	c, out := newTestConsole(t)
	var st types.ADCState
	runLine(t, c, out, "adc state", &st)
	if st.State != "idle" || st.Mode != "single" {
		t.Fatalf("state = %+v", st)
	}

	runLine(t, c, out, "adc start", &st)
	if st.State != "armed" {
		t.Fatalf("after start: %+v", st)
	}
	runLine(t, c, out, "adc stop complete", &st)
	if st.State != "idle" {
		t.Fatalf("after stop: %+v", st)
	}
}

func TestConsoleChargerControl(t *testing.T) {
	c, out := newTestConsole(t)
	var st types.ChargerIOState
	runLine(t, c, out, "charger mux on", &st)
	if !st.MuxEnabled {
		t.Fatalf("mux not enabled: %+v", st)
	}
	runLine(t, c, out, "charger ch ch3", &st)
	if st.MuxChannel != 3 {
		t.Fatalf("mux channel = %d", st.MuxChannel)
	}
	runLine(t, c, out, "charger vin 36v", &st)
	if st.Input24V || !st.Input36V || st.Input48V {
		t.Fatalf("input select: %+v", st)
	}
	runLine(t, c, out, "charger id level2_hi", &st)
	if st.IDLevel1 || !st.IDLevel2 {
		t.Fatalf("id level: %+v", st)
	}
}

func TestConsolePeekPoke(t *testing.T) {
	c, out := newTestConsole(t)
	runLine(t, c, out, "poke 0x1000 0xBEEF", nil)

	var rv regValue
	runLine(t, c, out, "peek 0x1000", &rv)
	if rv.Value != 0xBEEF || rv.Width != 16 || rv.Addr != "0x1000" {
		t.Fatalf("peek16 = %+v", rv)
	}
	runLine(t, c, out, `poke 0x1001 "0x12" 8`, nil)
	runLine(t, c, out, "peek 0x1000", &rv)
	if rv.Value != 0x12EF {
		t.Fatalf("after poke8: %#04x", rv.Value)
	}
	runLine(t, c, out, "peek 0x1001 8", &rv)
	if rv.Value != 0x12 || rv.Width != 8 {
		t.Fatalf("peek8 = %+v", rv)
	}
}

func TestConsoleErrors(t *testing.T) {
	c, out := newTestConsole(t)
	tests := []struct {
		line string
		want errcode.Code
	}{
		{"frobnicate", errcode.Unsupported},
		{"adc read", errcode.InvalidParams},
		{"adc read 99", errcode.InvalidParams},
		{"adc start sideways", errcode.InvalidParams},
		{"charger vin 12v", errcode.InvalidParams},
		{"poke 0x1000 0x1FF 8", errcode.InvalidParams},
		{"peek 0x1000 32", errcode.InvalidParams},
		{"stats", errcode.Unsupported},
		{`adc read "3`, errcode.InvalidParams},
		{"watch 1 0", errcode.InvalidParams},
		{"watch 0", errcode.InvalidParams},
	}
	for _, tc := range tests {
		out.Reset()
		err := c.line(context.Background(), tc.line)
		if errcode.Of(err) != tc.want {
			t.Fatalf("%q: err = %v, want %s", tc.line, err, tc.want)
		}
		var res struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if jerr := json.Unmarshal(out.Bytes(), &res); jerr != nil {
			t.Fatalf("%q: output %q: %v", tc.line, out.String(), jerr)
		}
		if res.Error != string(tc.want) || res.Detail == "" {
			t.Fatalf("%q: output %+v", tc.line, res)
		}
	}
}

func TestConsoleHelpListsCommands(t *testing.T) {
	c, out := newTestConsole(t)
	var res struct {
		Commands []string `json:"commands"`
	}
	runLine(t, c, out, "help", &res)
	if len(res.Commands) != len(commands) {
		t.Fatalf("help lists %d of %d commands", len(res.Commands), len(commands))
	}
}

func TestConsoleWatch(t *testing.T) {
	c, out := newTestConsole(t)
	runLine(t, c, out, "sim input 2 100", nil)
	runLine(t, c, out, "watch 2 1", nil)

	counts := map[string]int{}
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	for sc.Scan() {
		var ev struct {
			Topic   string          `json:"topic"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		counts[ev.Topic]++
		if ev.Topic == "adc/sample/2" {
			var smp types.ADCSample
			if err := json.Unmarshal(ev.Payload, &smp); err != nil || smp.Raw != 100 {
				t.Fatalf("sample 2 = %s (%v)", ev.Payload, err)
			}
		}
	}
	for _, topic := range []string{"adc/sample/0", "adc/sample/1", "adc/sample/2", "adc/sample/3", "charger/io/state", "monitor/status"} {
		if counts[topic] != 2 {
			t.Fatalf("%s seen %d times, want 2 (all: %v)", topic, counts[topic], counts)
		}
	}
}
