package plugin

import (
	"context"
	"testing"
)

// fullPlugin implements every hook interface.
type fullPlugin struct{}

func (fullPlugin) Name() string                                         { return "full" }
func (fullPlugin) OnInit(context.Context, interface{}) error            { return nil }
func (fullPlugin) OnShutdown(context.Context) error                     { return nil }
func (fullPlugin) OnAreaCreated(context.Context, interface{}) error     { return nil }
func (fullPlugin) OnAreaDeleted(context.Context, string) error          { return nil }
func (fullPlugin) OnCustomerCreated(context.Context, interface{}) error { return nil }
func (fullPlugin) OnCustomerUpdated(context.Context, interface{}, interface{}) error {
	return nil
}
func (fullPlugin) OnCustomerDeleted(context.Context, string, int) error   { return nil }
func (fullPlugin) OnPaymentRecorded(context.Context, interface{}) error   { return nil }
func (fullPlugin) OnPaymentDeleted(context.Context, interface{}) error    { return nil }
func (fullPlugin) OnStatementComputed(context.Context, interface{}) error { return nil }
func (fullPlugin) OnDefaulterScan(context.Context, string, int) error     { return nil }
func (fullPlugin) OnUserAuthenticated(context.Context, string) error      { return nil }
func (fullPlugin) OnAuthFailed(context.Context, string) error             { return nil }

func TestGetImplementedInterfacesReportsAllHooks(t *testing.T) {
	r := NewRegistry()

	got := r.getImplementedInterfaces(fullPlugin{})
	want := []string{
		"OnInit",
		"OnShutdown",
		"OnAreaCreated",
		"OnAreaDeleted",
		"OnCustomerCreated",
		"OnCustomerUpdated",
		"OnCustomerDeleted",
		"OnPaymentRecorded",
		"OnPaymentDeleted",
		"OnStatementComputed",
		"OnDefaulterScan",
		"OnUserAuthenticated",
		"OnAuthFailed",
	}

	found := make(map[string]bool, len(got))
	for _, name := range got {
		found[name] = true
	}
	for _, name := range want {
		if !found[name] {
			t.Errorf("interface %s not reported", name)
		}
	}
	if len(got) != len(want) {
		t.Errorf("reported %d interfaces, want %d: %v", len(got), len(want), got)
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(fullPlugin{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(fullPlugin{}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
}
