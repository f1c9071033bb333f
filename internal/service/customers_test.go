package service

import (
	"context"
	"testing"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCustomerPhoneBeatsName(t *testing.T) {
	existing := []models.Customer{
		{ID: "c1", Name: "Alice", Phone: "0700111222"},
		{ID: "c2", Name: "Bob", Phone: "0700333444"},
	}

	// Name says Bob but the phone belongs to Alice; phone wins.
	match := MatchCustomer("Bob", "0700111222", existing)

	require.NotNil(t, match)
	assert.Equal(t, "c1", match.ID)
}

func TestMatchCustomerNameCaseInsensitive(t *testing.T) {
	existing := []models.Customer{{ID: "c1", Name: "Alice Auma", Phone: ""}}

	match := MatchCustomer("alice auma", "", existing)

	require.NotNil(t, match)
	assert.Equal(t, "c1", match.ID)
}

func TestMatchCustomerNoMatch(t *testing.T) {
	existing := []models.Customer{{ID: "c1", Name: "Alice", Phone: "0700111222"}}

	assert.Nil(t, MatchCustomer("Carol", "0700999888", existing))
}

func TestResolveExplicitIDWins(t *testing.T) {
	fs := newFakeStore()
	cs := NewCustomerService(fs, nil, "+256")

	res, err := cs.Resolve(context.Background(), store.Scope{TenantID: "t1"}, ResolveInput{
		CustomerID: "chosen",
		Name:       "Whoever",
	})

	require.NoError(t, err)
	assert.Equal(t, "chosen", res.CustomerID)
	assert.False(t, res.Created)
}

func TestResolveCreatesWhenOnlyNameGiven(t *testing.T) {
	fs := newFakeStore()
	cs := NewCustomerService(fs, nil, "+256")
	scope := store.Scope{TenantID: "t1"}

	res, err := cs.Resolve(context.Background(), scope, ResolveInput{Name: "Carol"})

	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEmpty(t, res.CustomerID)

	// Resolving the same name again must dedup, not create a second
	// record.
	res2, err := cs.Resolve(context.Background(), scope, ResolveInput{Name: "carol"})
	require.NoError(t, err)
	assert.False(t, res2.Created)
	assert.Equal(t, res.CustomerID, res2.CustomerID)

	customers, err := fs.ListCustomers(context.Background(), scope)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestResolveAnonymousWhenEmpty(t *testing.T) {
	fs := newFakeStore()
	cs := NewCustomerService(fs, nil, "+256")

	res, err := cs.Resolve(context.Background(), store.Scope{TenantID: "t1"}, ResolveInput{})

	require.NoError(t, err)
	assert.Empty(t, res.CustomerID)
	assert.False(t, res.Created)
}

func TestResolvePhoneOnlyNoMatchStaysAnonymous(t *testing.T) {
	fs := newFakeStore()
	cs := NewCustomerService(fs, nil, "+256")
	scope := store.Scope{TenantID: "t1"}

	res, err := cs.Resolve(context.Background(), scope, ResolveInput{Phone: "0700555666"})

	require.NoError(t, err)
	assert.Empty(t, res.CustomerID)

	customers, err := fs.ListCustomers(context.Background(), scope)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestDisplayPhone(t *testing.T) {
	cs := NewCustomerService(newFakeStore(), nil, "+256")

	assert.Equal(t, "+256700111222", cs.DisplayPhone("0700111222"))
	assert.Equal(t, "+256700111222", cs.DisplayPhone("+256700111222"))
	assert.Equal(t, "", cs.DisplayPhone(""))
	assert.Equal(t, "0", cs.DisplayPhone("0"))
}

func TestListWithStatsOrdersByBalance(t *testing.T) {
	fs := newFakeStore()
	scope := store.Scope{TenantID: "t1"}
	alice := fs.addCustomer(models.Customer{Name: "Alice"})
	bob := fs.addCustomer(models.Customer{Name: "Bob"})
	carol := fs.addCustomer(models.Customer{Name: "Carol"})

	now := time.Now()
	fs.addSale(models.Sale{CustomerID: &alice.ID, AmountDue: 100, CreatedAt: now.Add(-time.Hour)})
	fs.addSale(models.Sale{CustomerID: &bob.ID, AmountDue: 300, AmountPaid: 50, CreatedAt: now})
	fs.addSale(models.Sale{CustomerID: &carol.ID, AmountDue: 0, AmountPaid: 200, CreatedAt: now})

	cs := NewCustomerService(fs, nil, "+256")
	summaries, err := cs.ListWithStats(context.Background(), scope)

	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "Bob", summaries[0].Name)
	assert.Equal(t, models.DebtStatusPartial, summaries[0].Status)
	assert.Equal(t, "Alice", summaries[1].Name)
	assert.Equal(t, models.DebtStatusOwing, summaries[1].Status)
	assert.Equal(t, "Carol", summaries[2].Name)
	assert.Equal(t, models.DebtStatusClear, summaries[2].Status)
}

func TestDetailAggregatesSales(t *testing.T) {
	fs := newFakeStore()
	scope := store.Scope{TenantID: "t1"}
	alice := fs.addCustomer(models.Customer{Name: "Alice", Phone: "0700111222"})
	fs.addSale(models.Sale{CustomerID: &alice.ID, TotalAmount: 500, AmountDue: 300, AmountPaid: 200})
	fs.addSale(models.Sale{CustomerID: &alice.ID, TotalAmount: 200, AmountDue: 0, AmountPaid: 200})

	cs := NewCustomerService(fs, nil, "+256")
	detail, err := cs.Detail(context.Background(), scope, alice.ID)

	require.NoError(t, err)
	assert.Equal(t, 700.0, detail.TotalPurchases)
	assert.Equal(t, 300.0, detail.TotalDebt)
	assert.Equal(t, models.DebtStatusPartial, detail.Status)
	assert.Equal(t, "+256700111222", detail.PhoneDisplay)
	assert.Len(t, detail.Sales, 2)
}
