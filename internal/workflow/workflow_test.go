package workflow

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/dmagro/seal-blob-bot/internal/blob"
	"github.com/dmagro/seal-blob-bot/internal/output"
	"github.com/dmagro/seal-blob-bot/internal/sui"
)

const selfAddr = "0x00000000000000000000000000000000000000000000000000000000000000aa"

// fakeChain answers Move calls with canned effects and records the order of
// operations shared with stubUploader.
type fakeChain struct {
	addr   string
	events *[]string
	calls  []sui.Call
	failOn string // module::function that fails
	n      int
}

func (f *fakeChain) Address() string { return f.addr }

func (f *fakeChain) Submit(ctx context.Context, call sui.Call) (*sui.Effects, error) {
	f.calls = append(f.calls, call)
	name := call.Module + "::" + call.Function
	*f.events = append(*f.events, name)
	if name == f.failOn {
		return nil, errors.New("MoveAbort")
	}

	f.n++
	switch call.Function {
	case "create_allowlist_entry", "create_service_entry":
		return &sui.Effects{Created: []sui.CreatedObject{
			{Owner: sui.Owner{Kind: sui.OwnerShared}, ObjectID: fmt.Sprintf("0xshared%d", f.n)},
			{Owner: sui.Owner{Kind: sui.OwnerAddress, Address: f.addr}, ObjectID: fmt.Sprintf("0xentry%d", f.n)},
		}}, nil
	default:
		return &sui.Effects{}, nil
	}
}

func (f *fakeChain) count(function string) int {
	n := 0
	for _, c := range f.calls {
		if c.Function == function {
			n++
		}
	}
	return n
}

type stubUploader struct {
	events *[]string
	epochs []int
	err    error
}

func (s *stubUploader) Upload(ctx context.Context, src blob.Source, epochs int) (string, error) {
	*s.events = append(*s.events, "upload")
	s.epochs = append(s.epochs, epochs)
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("blob-%d", len(s.epochs)), nil
}

func newTestBot(failOn string, uploadErr error) (*Bot, *fakeChain, *stubUploader, *[]string) {
	events := &[]string{}
	chain := &fakeChain{addr: selfAddr, events: events, failOn: failOn}
	up := &stubUploader{events: events, err: uploadErr}
	bot := NewBot(chain, up, Settings{PackageID: "0xpkg"}, output.Discard(), WithNamer(func() string { return "cool-work-1" }))
	return bot, chain, up, events
}

func TestRunAllowlistSingleTask(t *testing.T) {
	bot, chain, up, events := newTestBot("", nil)

	results, err := bot.RunAllowlist(context.Background(), blob.BytesSource([]byte("img")), nil, 1)
	if err != nil {
		t.Fatalf("RunAllowlist: %v", err)
	}

	want := []string{"allowlist::create_allowlist_entry", "allowlist::add", "upload", "allowlist::publish"}
	if strings.Join(*events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", *events, want)
	}
	if len(up.epochs) != 1 || up.epochs[0] != DefaultEpochs {
		t.Errorf("uploads = %v", up.epochs)
	}

	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	r := results[0]
	if r.AllowlistID != "0xshared1" || r.EntryObjectID != "0xentry1" || r.BlobID != "blob-1" {
		t.Errorf("result = %+v", r)
	}

	add := chain.calls[1]
	if add.Args[0] != "0xshared1" || add.Args[1] != "0xentry1" || add.Args[2] != selfAddr {
		t.Errorf("add args = %v", add.Args)
	}
	pub := chain.calls[2]
	if pub.Args[2] != "blob-1" {
		t.Errorf("publish args = %v", pub.Args)
	}
}

func TestRunAllowlistExtraAddresses(t *testing.T) {
	bot, chain, _, events := newTestBot("", nil)
	extra := []string{"0x1", "0x2", "0x3"}

	if _, err := bot.RunAllowlist(context.Background(), blob.BytesSource([]byte("img")), extra, 1); err != nil {
		t.Fatalf("RunAllowlist: %v", err)
	}

	if got := chain.count("add"); got != 4 {
		t.Fatalf("adds = %d, want 4", got)
	}
	// every add precedes the upload
	uploadAt := -1
	for i, e := range *events {
		if e == "upload" {
			uploadAt = i
		}
		if e == "allowlist::add" && uploadAt >= 0 {
			t.Errorf("add after upload at event %d", i)
		}
	}

	wantMembers := []string{selfAddr, "0x1", "0x2", "0x3"}
	i := 0
	for _, c := range chain.calls {
		if c.Function != "add" {
			continue
		}
		if c.Args[2] != wantMembers[i] {
			t.Errorf("add %d address = %v, want %s", i, c.Args[2], wantMembers[i])
		}
		i++
	}
}

func TestRunAllowlistMultipleTasks(t *testing.T) {
	bot, chain, up, _ := newTestBot("", nil)

	results, err := bot.RunAllowlist(context.Background(), blob.BytesSource([]byte("img")), []string{"0x1"}, 3)
	if err != nil {
		t.Fatalf("RunAllowlist: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if chain.count("create_allowlist_entry") != 3 || chain.count("add") != 6 || chain.count("publish") != 3 {
		t.Errorf("calls: create=%d add=%d publish=%d", chain.count("create_allowlist_entry"), chain.count("add"), chain.count("publish"))
	}
	if len(up.epochs) != 3 {
		t.Errorf("uploads = %d", len(up.epochs))
	}
}

func TestRunAllowlistAbortsOnFailure(t *testing.T) {
	tests := []struct {
		name      string
		failOn    string
		uploadErr error
		wantCalls []string
	}{
		{
			name:      "create fails",
			failOn:    "allowlist::create_allowlist_entry",
			wantCalls: []string{"allowlist::create_allowlist_entry"},
		},
		{
			name:      "add fails",
			failOn:    "allowlist::add",
			wantCalls: []string{"allowlist::create_allowlist_entry", "allowlist::add"},
		},
		{
			name:      "upload exhausted",
			uploadErr: blob.ErrExhausted,
			wantCalls: []string{"allowlist::create_allowlist_entry", "allowlist::add", "upload"},
		},
		{
			name:      "publish fails",
			failOn:    "allowlist::publish",
			wantCalls: []string{"allowlist::create_allowlist_entry", "allowlist::add", "upload", "allowlist::publish"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot, _, _, events := newTestBot(tt.failOn, tt.uploadErr)

			results, err := bot.RunAllowlist(context.Background(), blob.BytesSource([]byte("img")), nil, 2)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.uploadErr != nil && !errors.Is(err, tt.uploadErr) {
				t.Errorf("err = %v, want wrapping %v", err, tt.uploadErr)
			}
			if len(results) != 0 {
				t.Errorf("results = %v", results)
			}
			if strings.Join(*events, ",") != strings.Join(tt.wantCalls, ",") {
				t.Errorf("events = %v, want %v", *events, tt.wantCalls)
			}
		})
	}
}

func TestRunAllowlistPartialResults(t *testing.T) {
	events := &[]string{}
	chain := &fakeChain{addr: selfAddr, events: events}
	up := &failAfter{ok: 1, events: events}
	bot := NewBot(chain, up, Settings{}, output.Discard())

	results, err := bot.RunAllowlist(context.Background(), blob.BytesSource([]byte("img")), nil, 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if !strings.Contains(err.Error(), "allowlist 2 of 3") {
		t.Errorf("err = %v", err)
	}
}

type failAfter struct {
	ok     int
	n      int
	events *[]string
}

func (f *failAfter) Upload(ctx context.Context, src blob.Source, epochs int) (string, error) {
	f.n++
	*f.events = append(*f.events, "upload")
	if f.n > f.ok {
		return "", blob.ErrExhausted
	}
	return "blob", nil
}

func TestRunSubscription(t *testing.T) {
	bot, chain, _, events := newTestBot("", nil)

	results, err := bot.RunSubscription(context.Background(), blob.BytesSource([]byte("img")), 2)
	if err != nil {
		t.Fatalf("RunSubscription: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}

	want := []string{
		"subscription::create_service_entry", "upload", "subscription::publish",
		"subscription::create_service_entry", "upload", "subscription::publish",
	}
	if strings.Join(*events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v", *events)
	}

	create := chain.calls[0]
	if create.Package != "0xpkg" || create.GasBudget != sui.DefaultGasBudget {
		t.Errorf("call = %+v", create)
	}
	wantArgs := []any{"10", "60000000", "cool-work-1"}
	for i, a := range wantArgs {
		if create.Args[i] != a {
			t.Errorf("arg %d = %v, want %v", i, create.Args[i], a)
		}
	}
	if results[0].SharedObjectID != "0xshared1" || results[0].ServiceEntryID != "0xentry1" || results[0].BlobID != "blob-1" {
		t.Errorf("result = %+v", results[0])
	}
}

func TestCreateAllowlistMissingObjects(t *testing.T) {
	events := &[]string{}
	chain := &emptyEffects{addr: selfAddr}
	bot := NewBot(chain, &stubUploader{events: events}, Settings{}, output.Discard())

	_, _, err := bot.CreateAllowlist(context.Background(), "name")
	if !errors.Is(err, sui.ErrObjectNotFound) {
		t.Errorf("err = %v, want ErrObjectNotFound", err)
	}
}

type emptyEffects struct{ addr string }

func (e *emptyEffects) Address() string { return e.addr }
func (e *emptyEffects) Submit(ctx context.Context, call sui.Call) (*sui.Effects, error) {
	return &sui.Effects{}, nil
}

func TestRandomName(t *testing.T) {
	re := regexp.MustCompile(`^(cool|awesome|top|excellent|perfect)-(project|creation|work|masterpiece|innovation)-(\d{1,3})$`)
	for i := 0; i < 200; i++ {
		if name := RandomName(); !re.MatchString(name) {
			t.Fatalf("RandomName() = %q", name)
		}
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"1", ActionAllowlist, false},
		{"allowlist", ActionAllowlist, false},
		{"2", ActionSubscription, false},
		{"subscription", ActionSubscription, false},
		{"3", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAction(%q) = %q, %v", tt.in, got, err)
		}
	}
}
