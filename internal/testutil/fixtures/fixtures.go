// Package fixtures holds well-formed FIX samples and workspace paths shared by
// package tests. Every sample carries a correct BodyLength and CheckSum.
package fixtures

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	NewOrderSingle44 = "8=FIX.4.4|9=104|35=D|49=SenderCompID|56=TargetCompID|34=1|52=20231208-12:34:56|11=Order123|54=1|38=100|55=AAPL|44=50.00|10=241|"
	CustomXX44       = "8=FIX.4.4|9=105|35=XX|49=SenderCompID|56=TargetCompID|34=1|52=20231208-12:34:56|11=Order123|54=1|38=100|55=AAPL|44=50.00|10=094|"
	CancelRequest44  = "8=FIX.4.4|9=99|35=F|49=SenderCompID|56=TargetCompID|34=3|52=20231208-12:35:10|11=Cancel1|41=Order123|54=1|55=AAPL|10=016|"
	ExtraField44     = "8=FIX.4.4|9=114|35=D|49=SenderCompID|56=TargetCompID|34=4|52=20231208-12:34:56|11=Order124|54=1|38=100|55=AAPL|44=50.00|999=TESTE|10=100|"
	NewOrderSingle50 = "8=FIX.5.0|9=110|35=D|49=BUYSIDE|56=SELLSIDE|34=2|52=20231208-12:34:56|11=Order789|54=1|38=10|55=IBM|40=1|60=20231208-12:34:56|10=056|"
	ExecutionReport44 = "8=FIX.4.4|9=162|35=8|49=TargetCompID|56=SenderCompID|34=2|52=20231208-12:34:57|37=EX1001|11=Order123|17=Exec1|150=F|39=2|55=AAPL|54=1|38=100|32=100|31=50.00|151=0|14=100|6=50.00|10=020|"
	CancelReplace44   = "8=FIX.4.4|9=142|35=G|49=SenderCompID|56=TargetCompID|34=5|52=20231208-12:36:00|41=Order123|11=Order125|54=1|55=AAPL|38=150|40=2|44=49.50|60=20231208-12:36:00|10=017|"
	NewOrderSP2      = "8=FIX.5.0SP2|9=135|35=D|49=SenderCompID|56=TargetCompID|34=7|52=20231208-12:34:56.123|11=Order456|54=2|38=250|55=MSFT|40=2|44=310.25|60=20231208-12:34:56|10=211|"

	// LegacyNewOrderSingle44 has a correct CheckSum but a wrong BodyLength.
	LegacyNewOrderSingle44 = "8=FIX.4.4|9=123|35=D|49=SenderCompID|56=TargetCompID|34=1|52=20231208-12:34:56|11=Order123|54=1|38=100|55=AAPL|44=50.00|10=242|"
)

// Root walks up from the test's working directory to the module root.
func Root(t testing.TB) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}

// DictionaryDir is the shipped data dictionary directory.
func DictionaryDir(t testing.TB) string {
	t.Helper()
	return filepath.Join(Root(t), "spec")
}

// Dictionary returns the path of one shipped dictionary file.
func Dictionary(t testing.TB, name string) string {
	t.Helper()
	return filepath.Join(DictionaryDir(t), name)
}
