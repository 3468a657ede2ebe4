package ledger

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "\n", "username,place,state,country,latitude,longitude,picture", "username,place,state,country,latitude,longitude,picture\n"} {
		records, err := Parse([]byte(input))
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if len(records) != 0 {
			t.Errorf("Parse(%q) = %d records, want 0", input, len(records))
		}
	}
}

func TestParse_HeaderDefinesColumnOrder(t *testing.T) {
	input := "place,username,latitude,longitude\nParis,alice,48.8566,2.3522\n"
	records, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []Record{{Username: "alice", Place: "Paris", Latitude: "48.8566", Longitude: "2.3522"}}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %+v, want %+v", records, want)
	}
}

func TestParse_SkipsEmptyLinesAndToleratesRaggedRows(t *testing.T) {
	input := "username,place,state,country,latitude,longitude,picture\n" +
		"alice,Paris,Ile-de-France,France,48.8566,2.3522,/images/Paris.jpg\n" +
		"\n" +
		"bob,Pune\n"
	records, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[1].Username != "bob" || records[1].Place != "Pune" || records[1].Country != "" {
		t.Errorf("ragged row = %+v", records[1])
	}
}

func TestSerialize_QuotesOnlyWhenNeeded(t *testing.T) {
	records := []Record{{
		Username:  "alice",
		Place:     `Sao Paulo, "the city"`,
		Country:   "Brazil",
		Latitude:  "-23.55",
		Longitude: "-46.63",
		Picture:   "/images/Sao_Paulo.jpg",
	}}
	data, err := Serialize(records)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"Sao Paulo, ""the city"""`) {
		t.Errorf("comma/quote field not quoted: %q", out)
	}
	if strings.Contains(out, `"alice"`) {
		t.Errorf("plain field quoted: %q", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Errorf("trailing newline present: %q", out)
	}
	if strings.Contains(out, "\r") {
		t.Errorf("carriage return present: %q", out)
	}
}

func TestSerialize_HeaderFirst(t *testing.T) {
	data, err := Serialize(nil)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if got := string(data); got != strings.Join(Columns, ",") {
		t.Errorf("empty ledger = %q, want header only", got)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	records := []Record{
		{Username: "alice", Place: "Paris", State: "Ile-de-France", Country: "France", Latitude: "48.8566", Longitude: "2.3522", Picture: "/images/Paris.jpg"},
		{Username: "alice", Place: "New Delhi", Country: "India", Latitude: "28.6139", Longitude: "77.2090", Picture: "/images/New_Delhi.jpg"},
	}
	data, err := Serialize(records)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(parsed, records) {
		t.Errorf("parse(serialize(x)) = %+v, want %+v", parsed, records)
	}
}

func TestCodec_StableUnderSelfApplication(t *testing.T) {
	records := []Record{
		{Username: "bob", Place: "Zermatt, Valais", Country: "Switzerland", Latitude: "46.0207", Longitude: "7.7491", Picture: "/images/Zermatt,_Valais.jpg"},
	}
	first, err := Serialize(records)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	parsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, err := Serialize(parsed)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("serialize(parse(x)) = %q, want %q", second, first)
	}
}
