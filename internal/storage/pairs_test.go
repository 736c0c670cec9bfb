package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/MrSnakeDoc/gitmark/internal/storage/memory"
)

type record struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func TestPairsMarshalKeepsInsertionOrder(t *testing.T) {
	var p Pairs[record]
	p.Set("b@x.com", record{Name: "B", Password: "Yg=="})
	p.Set("a@x.com", record{Name: "A", Password: "YQ=="})
	p.Set("b@x.com", record{Name: "B2", Password: "Yg=="})

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `[["b@x.com",{"name":"B2","password":"Yg=="}],["a@x.com",{"name":"A","password":"YQ=="}]]`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant %s", data, want)
	}
}

func TestPairsUnmarshal(t *testing.T) {
	input := `[["a@x.com",{"name":"A","password":"cHc="}],["c@x.com",{"name":"C","password":""}]]`

	var p Pairs[record]
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %v, want 2", p.Len())
	}
	keys := p.Keys()
	if keys[0] != "a@x.com" || keys[1] != "c@x.com" {
		t.Errorf("Keys() = %v", keys)
	}
	rec, ok := p.Get("a@x.com")
	if !ok || rec.Name != "A" || rec.Password != "cHc=" {
		t.Errorf("Get(a@x.com) = %+v, %v", rec, ok)
	}
}

func TestPairsUnmarshalRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not an array", input: `{"a":1}`},
		{name: "short pair", input: `[["a@x.com"]]`},
		{name: "numeric key", input: `[[1,{"name":"A"}]]`},
		{name: "bad value", input: `[["a@x.com","oops"]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Pairs[record]
			if err := json.Unmarshal([]byte(tt.input), &p); err == nil {
				t.Errorf("Unmarshal(%s) should fail", tt.input)
			}
		})
	}
}

func TestPairsClone(t *testing.T) {
	var p Pairs[int]
	p.Set("a", 1)

	c := p.Clone()
	c.Set("b", 2)
	c.Set("a", 10)

	if p.Len() != 1 {
		t.Errorf("original Len() = %v, want 1", p.Len())
	}
	if v, _ := p.Get("a"); v != 1 {
		t.Errorf("original a = %v, want 1", v)
	}
}

func TestLoadSaveJSON(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	var missing Pairs[record]
	ok, err := LoadJSON(ctx, b, KeyUsers, &missing)
	if err != nil || ok {
		t.Fatalf("LoadJSON(absent) = %v, %v; want false, nil", ok, err)
	}

	var p Pairs[record]
	p.Set("a@x.com", record{Name: "A"})
	if err := SaveJSON(ctx, b, KeyUsers, p); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	var loaded Pairs[record]
	ok, err = LoadJSON(ctx, b, KeyUsers, &loaded)
	if err != nil || !ok {
		t.Fatalf("LoadJSON() = %v, %v", ok, err)
	}
	if !loaded.Has("a@x.com") {
		t.Error("loaded map should contain a@x.com")
	}

	_ = b.Set(ctx, KeyUser, []byte("{not json"))
	var broken struct{}
	if _, err := LoadJSON(ctx, b, KeyUser, &broken); err == nil {
		t.Error("LoadJSON() should fail on corrupt data")
	}
}
