package state

import (
	"math/big"
	"testing"

	"travelledger/core/types"
	"travelledger/storage"
)

func TestKVRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())

	ok, err := m.KVGet([]byte("missing"), nil)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatalf("missing key reported present")
	}

	var seq uint64 = 42
	if err := m.KVPut([]byte("seq"), seq); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out uint64
	ok, err = m.KVGet([]byte("seq"), &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out != 42 {
		t.Fatalf("unexpected value: %d", out)
	}
}

func TestKVAppendKeepsOrderAndDedupes(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	key := []byte("index")
	for _, v := range []string{"a", "b", "a", "c"} {
		if err := m.KVAppend(key, []byte(v)); err != nil {
			t.Fatalf("append %q: %v", v, err)
		}
	}
	var list [][]byte
	if err := m.KVGetList(key, &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(list) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(list))
	}
	for i, w := range want {
		if string(list[i]) != w {
			t.Fatalf("entry %d: expected %q, got %q", i, w, list[i])
		}
	}
}

func TestKVGetListMissingYieldsEmpty(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	var list [][]byte
	if err := m.KVGetList([]byte("nothing"), &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := []byte{0xAA, 0xBB}

	account, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("get fresh account: %v", err)
	}
	if len(account.Balances) != 0 {
		t.Fatalf("fresh account has balances: %v", account.Balances)
	}

	account.SetBalance("USDC", big.NewInt(100))
	account.SetBalance("EURC", big.NewInt(5))
	account.Nonce = 7
	if err := m.PutAccount(addr, account); err != nil {
		t.Fatalf("put account: %v", err)
	}

	loaded, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if loaded.Nonce != 7 {
		t.Fatalf("unexpected nonce: %d", loaded.Nonce)
	}
	if got := loaded.Balance("USDC"); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected USDC balance: %s", got)
	}
	if got := loaded.Balance("EURC"); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected EURC balance: %s", got)
	}
	if got := loaded.Balance("DOGE"); got.Sign() != 0 {
		t.Fatalf("unexpected DOGE balance: %s", got)
	}
}

func TestAccountBalancesStaySorted(t *testing.T) {
	account := &types.Account{}
	account.SetBalance("ZZZ", big.NewInt(1))
	account.SetBalance("AAA", big.NewInt(2))
	account.SetBalance("MMM", big.NewInt(3))
	want := []string{"AAA", "MMM", "ZZZ"}
	for i, w := range want {
		if account.Balances[i].Symbol != w {
			t.Fatalf("balances out of order: %+v", account.Balances)
		}
	}
}
