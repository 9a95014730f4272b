package quote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/core/numerator"
	"motodealer/internal/core/types"
	"motodealer/internal/domain/financing"
	"motodealer/internal/domain/promotion"
	"motodealer/internal/domain/quote"
	"motodealer/internal/infrastructure/storage/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func ars(v string) types.Amount {
	return types.NewAmount(dec(v), types.ARS)
}

type fixture struct {
	bank5     promotion.Promotion
	surcharge promotion.Promotion
	three0    promotion.Promotion
	threeSix  promotion.Promotion
	twelve    promotion.Promotion

	archive *memory.QuoteArchive
	svc     *quote.Service
}

func newEngine() *promotion.EligibilityEngine {
	engine, err := promotion.NewEligibilityEngine()
	if err != nil {
		panic(err)
	}
	return engine
}

func newFixture(policy promotion.OverlapPolicy) *fixture {
	f := &fixture{
		bank5:     promotion.Promotion{ID: id.New(), Name: "Banco 5%", IsEnabled: true, DiscountRate: ptr("5")},
		surcharge: promotion.Promotion{ID: id.New(), Name: "Recargo 5%", IsEnabled: true, SurchargeRate: ptr("5")},
		three0: promotion.Promotion{ID: id.New(), Name: "3 sin interes", IsEnabled: true, InstallmentPlans: []promotion.InstallmentPlan{
			{Installments: 3, InterestRate: dec("0"), IsEnabled: true},
		}},
		threeSix: promotion.Promotion{ID: id.New(), Name: "3 y 6", IsEnabled: true, InstallmentPlans: []promotion.InstallmentPlan{
			{Installments: 3, InterestRate: dec("10"), IsEnabled: true},
			{Installments: 6, InterestRate: dec("20"), IsEnabled: true},
		}},
		twelve: promotion.Promotion{ID: id.New(), Name: "12 cuotas", IsEnabled: true, InstallmentPlans: []promotion.InstallmentPlan{
			{Installments: 12, InterestRate: dec("30"), IsEnabled: true},
		}},
		archive: memory.NewQuoteArchive(),
	}

	repo := memory.NewPromotionRepo(f.bank5, f.surcharge, f.three0, f.threeSix, f.twelve)
	f.svc = quote.NewService(repo, newEngine(), promotion.NewComposer(policy), f.archive)
	return f
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestBuild_CashWithManualDiscountAndPromotion(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	q, err := f.svc.Build(context.Background(), quote.Request{
		BasePrice:      ars("100000"),
		ManualDiscount: promotion.ManualDiscount{Type: promotion.DiscountPercentage, Value: dec("10")},
		PromotionIDs:   []id.ID{f.bank5.ID},
		PaymentMethod:  promotion.PaymentCash,
	})
	require.NoError(t, err)

	assert.False(t, id.IsNil(q.ID))
	assertDecimal(t, "90000", q.Pricing.AfterManualDiscount)
	assertDecimal(t, "85500", q.FinalPrice)
	assertDecimal(t, "85500", q.RemainingAmount)
	assert.False(t, q.Financed())
	assert.Equal(t, "$ 85.500", q.Display.FinalPrice)
	assert.Empty(t, q.Display.InstallmentAmount)
	require.Len(t, q.Promotions, 1)
	assert.Equal(t, "Banco 5%", q.Promotions[0].Name)
}

func TestBuild_CurrentAccountSchedule(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	q, err := f.svc.Build(context.Background(), quote.Request{
		BasePrice:     ars("150000"),
		PaymentMethod: promotion.PaymentCurrentAccount,
		DownPayment:   dec("20000"),
		Reservation:   &types.Amount{Value: dec("10"), Currency: types.USD},
		ExchangeRate:  ptr("1000"),
		Installments:  12,
		Frequency:     financing.Monthly,
	})
	require.NoError(t, err)

	// 150000 - 10 USD * 1000 - 20000
	assertDecimal(t, "120000", q.RemainingAmount)
	require.True(t, q.Financed())
	assert.Equal(t, financing.Monthly, q.Frequency)
	assertDecimal(t, "10000", q.Financing.InstallmentAmount)
	assertDecimal(t, "120000", q.Financing.TotalPayment)
	assert.Len(t, q.Financing.Schedule, 12)
	assert.Equal(t, "$ 10.000", q.Display.InstallmentAmount)
	assert.Equal(t, "$ 120.000", q.Display.TotalPayment)
}

func TestBuild_CurrentAccountWithInterest(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	q, err := f.svc.Build(context.Background(), quote.Request{
		BasePrice:         ars("100000"),
		PaymentMethod:     promotion.PaymentCurrentAccount,
		Installments:      12,
		AnnualRatePercent: dec("12"),
	})
	require.NoError(t, err)

	assert.Equal(t, financing.Monthly, q.Frequency, "frequency defaults to monthly")
	assertDecimal(t, "12", q.AnnualRatePercent)
	assertDecimal(t, "8885", q.Financing.InstallmentAmount)
	assertDecimal(t, "106625", q.Financing.TotalPayment)
}

func TestBuild_DegradedScheduleStillQuotes(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	q, err := f.svc.Build(context.Background(), quote.Request{
		BasePrice:         ars("1200"),
		PaymentMethod:     promotion.PaymentCurrentAccount,
		Installments:      12,
		AnnualRatePercent: dec("-1200"),
	})
	require.NoError(t, err)

	assert.Equal(t, financing.WarningDegenerateRate, q.Financing.Warning)
	assertDecimal(t, "100", q.Financing.InstallmentAmount)
}

func TestBuild_CardTakesBestPromotionRate(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	q, err := f.svc.Build(context.Background(), quote.Request{
		BasePrice:     ars("90000"),
		PromotionIDs:  []id.ID{f.threeSix.ID, f.three0.ID},
		PaymentMethod: promotion.PaymentCreditCard,
		Installments:  3,
	})
	require.NoError(t, err)

	assertDecimal(t, "0", q.AnnualRatePercent)
	assertDecimal(t, "30000", q.Financing.InstallmentAmount)
	require.Len(t, q.InstallmentOptions, 2)
	assert.Equal(t, 3, q.InstallmentOptions[0].Installments)
	assertDecimal(t, "0", q.InstallmentOptions[0].InterestRate)
	assertDecimal(t, "20", q.BestRates[6])
}

func TestBuild_CardInstallmentsNotOffered(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	_, err := f.svc.Build(context.Background(), quote.Request{
		BasePrice:     ars("90000"),
		PromotionIDs:  []id.ID{f.three0.ID},
		PaymentMethod: promotion.PaymentDebitCard,
		Installments:  18,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
	assert.Equal(t, 18, appErr.Details["installments"])
}

func TestBuild_IncompatibleSelection(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)
	ctx := context.Background()

	_, err := f.svc.Build(ctx, quote.Request{
		BasePrice:     ars("100000"),
		PromotionIDs:  []id.ID{f.surcharge.ID, f.bank5.ID},
		PaymentMethod: promotion.PaymentCash,
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeIncompatiblePromotions, appErr.Code)
	assert.Equal(t, f.bank5.ID.String(), appErr.Details["candidate"])

	// Disjoint installment counts only clash on card payments by default.
	_, err = f.svc.Build(ctx, quote.Request{
		BasePrice:     ars("100000"),
		PromotionIDs:  []id.ID{f.three0.ID, f.twelve.ID},
		PaymentMethod: promotion.PaymentCreditCard,
	})
	assert.Error(t, err)

	_, err = f.svc.Build(ctx, quote.Request{
		BasePrice:     ars("100000"),
		PromotionIDs:  []id.ID{f.three0.ID, f.twelve.ID},
		PaymentMethod: promotion.PaymentCurrentAccount,
	})
	assert.NoError(t, err)

	strict := newFixture(promotion.OverlapAlways)
	_, err = strict.svc.Build(ctx, quote.Request{
		BasePrice:     ars("100000"),
		PromotionIDs:  []id.ID{strict.three0.ID, strict.twelve.ID},
		PaymentMethod: promotion.PaymentCurrentAccount,
	})
	assert.Error(t, err)
}

func TestBuild_UnknownPromotion(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	_, err := f.svc.Build(context.Background(), quote.Request{
		BasePrice:     ars("100000"),
		PromotionIDs:  []id.ID{id.New()},
		PaymentMethod: promotion.PaymentCash,
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestBuild_Validation(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)

	tests := []struct {
		name string
		req  quote.Request
	}{
		{"negative price", quote.Request{BasePrice: ars("-1"), PaymentMethod: promotion.PaymentCash}},
		{"unsupported currency", quote.Request{BasePrice: types.NewAmount(dec("10"), "EUR"), PaymentMethod: promotion.PaymentCash}},
		{"unknown payment method", quote.Request{BasePrice: ars("10"), PaymentMethod: "barter"}},
		{"negative installments", quote.Request{BasePrice: ars("10"), PaymentMethod: promotion.PaymentCurrentAccount, Installments: -1}},
		{"negative down payment", quote.Request{BasePrice: ars("10"), PaymentMethod: promotion.PaymentCash, DownPayment: dec("-5")}},
		{"bad frequency", quote.Request{BasePrice: ars("10"), PaymentMethod: promotion.PaymentCurrentAccount, Frequency: "DAILY"}},
		{"installments on cash", quote.Request{BasePrice: ars("10"), PaymentMethod: promotion.PaymentCash, Installments: 3}},
		{"too many installments", quote.Request{BasePrice: ars("100000"), PaymentMethod: promotion.PaymentCurrentAccount, Installments: 1 << 40}},
		{"one past the limit", quote.Request{BasePrice: ars("100000"), PaymentMethod: promotion.PaymentCurrentAccount, Installments: financing.MaxInstallments + 1}},
		{"duplicate promotion", quote.Request{BasePrice: ars("100000"), PaymentMethod: promotion.PaymentCash, PromotionIDs: []id.ID{f.bank5.ID, f.bank5.ID}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Build(context.Background(), tt.req)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestBuild_RejectsPromotionsTheSaleDoesNotQualifyFor(t *testing.T) {
	past := time.Now().AddDate(-1, 0, 0)
	future := time.Now().AddDate(1, 0, 0)

	cardOnly := promotion.Promotion{ID: id.New(), Name: "Tarjeta 20%", IsEnabled: true, DiscountRate: ptr("20"),
		PaymentMethods: []promotion.PaymentMethod{promotion.PaymentCreditCard}}
	disabled := promotion.Promotion{ID: id.New(), Name: "Apagada 30%", DiscountRate: ptr("30")}
	expired := promotion.Promotion{ID: id.New(), Name: "Vencida 40%", IsEnabled: true, DiscountRate: ptr("40"), ValidUntil: &past}
	upcoming := promotion.Promotion{ID: id.New(), Name: "Futura 40%", IsEnabled: true, DiscountRate: ptr("40"), ValidFrom: &future}
	galicia := promotion.Promotion{ID: id.New(), Name: "Galicia 10%", IsEnabled: true, DiscountRate: ptr("10"), Bank: "Galicia"}
	visa := promotion.Promotion{ID: id.New(), Name: "Visa 10%", IsEnabled: true, DiscountRate: ptr("10"),
		Eligibility: `card_brand == "visa"`}

	repo := memory.NewPromotionRepo(cardOnly, disabled, expired, upcoming, galicia, visa)
	svc := quote.NewService(repo, newEngine(), promotion.NewComposer(promotion.OverlapCardOnly), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		req    quote.Request
		reason string
	}{
		{"card-only on cash", quote.Request{PromotionIDs: []id.ID{cardOnly.ID}, PaymentMethod: promotion.PaymentCash}, promotion.ReasonPaymentMethod},
		{"disabled", quote.Request{PromotionIDs: []id.ID{disabled.ID}, PaymentMethod: promotion.PaymentCash}, promotion.ReasonDisabled},
		{"expired", quote.Request{PromotionIDs: []id.ID{expired.ID}, PaymentMethod: promotion.PaymentCash}, promotion.ReasonOutsideValidity},
		{"not started", quote.Request{PromotionIDs: []id.ID{upcoming.ID}, PaymentMethod: promotion.PaymentCash}, promotion.ReasonOutsideValidity},
		{"other bank", quote.Request{PromotionIDs: []id.ID{galicia.ID}, PaymentMethod: promotion.PaymentCreditCard, Bank: "Santander"}, promotion.ReasonBank},
		{"rule not met", quote.Request{PromotionIDs: []id.ID{visa.ID}, PaymentMethod: promotion.PaymentCreditCard, CardBrand: "amex"}, promotion.ReasonRuleNotSatisfied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.BasePrice = ars("100000")
			q, err := svc.Build(ctx, tt.req)
			require.Error(t, err)
			assert.Nil(t, q)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodePromotionNotApplicable, appErr.Code)
			assert.Equal(t, tt.reason, appErr.Details["reason"])
			assert.Equal(t, tt.req.PromotionIDs[0].String(), appErr.Details["promotion"])
		})
	}

	q, err := svc.Build(ctx, quote.Request{
		BasePrice:     ars("100000"),
		PromotionIDs:  []id.ID{cardOnly.ID, galicia.ID, visa.ID},
		PaymentMethod: promotion.PaymentCreditCard,
		CardBrand:     "VISA",
		Bank:          "galicia",
	})
	require.NoError(t, err)
	// 100000 * 0.8 * 0.9 * 0.9
	assertDecimal(t, "64800", q.FinalPrice)
}

func TestSave(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)
	ctx := context.Background()

	q, err := f.svc.Build(ctx, quote.Request{BasePrice: ars("50000"), PaymentMethod: promotion.PaymentTransfer})
	require.NoError(t, err)
	require.NoError(t, f.svc.Save(ctx, q))

	saved, err := f.archive.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, saved.ID)

	noArchive := quote.NewService(memory.NewPromotionRepo(), newEngine(), promotion.NewComposer(""), nil)
	err = noArchive.Save(ctx, q)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnavailable, appErr.Code)
}

type recordingTx struct {
	calls int
}

func (r *recordingTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

type failingArchive struct{}

func (failingArchive) Save(context.Context, *quote.Quote) error {
	return errors.New("disk full")
}

func TestSave_Numbering(t *testing.T) {
	f := newFixture(promotion.OverlapCardOnly)
	txm := &recordingTx{}
	f.svc.WithNumbering(quote.Numbering{
		Generator: memory.NewSequences(),
		Config:    numerator.DefaultConfig("COT"),
	}, txm)
	ctx := context.Background()

	first, err := f.svc.Build(ctx, quote.Request{BasePrice: ars("50000"), PaymentMethod: promotion.PaymentCash})
	require.NoError(t, err)
	second, err := f.svc.Build(ctx, quote.Request{BasePrice: ars("70000"), PaymentMethod: promotion.PaymentCash})
	require.NoError(t, err)

	require.NoError(t, f.svc.Save(ctx, first))
	require.NoError(t, f.svc.Save(ctx, second))

	year := first.CreatedAt.Format("2006")
	assert.Equal(t, "COT-"+year+"-00001", first.Number)
	assert.Equal(t, "COT-"+year+"-00002", second.Number)
	assert.Equal(t, 2, txm.calls)

	saved, err := f.archive.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Number, saved.Number)
}

func TestSave_NumberClearedWhenArchiveFails(t *testing.T) {
	svc := quote.NewService(memory.NewPromotionRepo(), newEngine(), promotion.NewComposer(""), failingArchive{}).
		WithNumbering(quote.Numbering{
			Generator: memory.NewSequences(),
			Config:    numerator.DefaultConfig("COT"),
		}, nil)
	ctx := context.Background()

	q, err := svc.Build(ctx, quote.Request{BasePrice: ars("50000"), PaymentMethod: promotion.PaymentCash})
	require.NoError(t, err)

	require.Error(t, svc.Save(ctx, q))
	assert.Empty(t, q.Number)
}
