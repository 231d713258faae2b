package common

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/lni/dragonboat/v4/logger"
)

func TestParseShards(t *testing.T) {
	shards, err := ParseShards("100=avlmap, 200=fifo")
	if err != nil {
		t.Fatal(err)
	}
	want := []ServerShard{{100, db.ImplAVLMap}, {200, db.ImplFIFO}}
	if len(shards) != len(want) || shards[0] != want[0] || shards[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, shards)
	}

	for _, invalid := range []string{"", "100", "x=avlmap", "1=avlmap,1=fifo", "1=btree"} {
		if _, err := ParseShards(invalid); err == nil {
			t.Errorf("Expected an error for %q", invalid)
		}
	}
}

func TestMessageTypeJSON(t *testing.T) {
	for mt := range messageTypeNames {
		data, err := json.Marshal(mt)
		if err != nil {
			t.Fatal(err)
		}
		var back MessageType
		if err := json.Unmarshal(data, &back); err != nil || back != mt {
			t.Errorf("%s: got %v, %v", mt, back, err)
		}
	}
	var mt MessageType
	if err := json.Unmarshal([]byte(`"acquire"`), &mt); err == nil {
		t.Errorf("Expected an error for an unknown type")
	}
}

func TestInfoResponse(t *testing.T) {
	resp := NewInfoResponse(db.DatabaseInfo{DbType: db.ImplFIFO, SizeBytes: 10}, nil)
	var info db.DatabaseInfo
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		t.Fatal(err)
	}
	if info.DbType != db.ImplFIFO || info.SizeBytes != 10 {
		t.Errorf("Unexpected info %+v", info)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stdout)

	l := CreateLogger("routing")
	l.SetLevel(logger.WARNING)
	l.Infof("hidden")
	l.Warningf("shown %d", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "WARN  | routing    | shown 1") {
		t.Errorf("Unexpected log output %q", out)
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestInitLoggersTwice(t *testing.T) {
	if err := InitLoggers("error"); err != nil {
		t.Fatalf("First init failed: %v", err)
	}
	if err := InitLoggers("debug"); err != nil {
		t.Fatalf("Second init failed: %v", err)
	}
	if err := InitLoggers("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}
