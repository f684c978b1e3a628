package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cartola/internal/correction"
	"github.com/Veraticus/cartola/internal/filter"
	"github.com/Veraticus/cartola/internal/model"
	"github.com/Veraticus/cartola/internal/rules"
)

var clock = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }

func newRegistry(t *testing.T) []Parser {
	t.Helper()
	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("p-%d", seq)
	}
	store := rules.NewStore(rules.DefaultDocument("org", clock(), newID), nil, rules.WithClock(clock))
	return Registry(filter.New(store), correction.New(store), WithClock(clock))
}

func parserNamed(t *testing.T, name string) Parser {
	t.Helper()
	p, ok := ByName(newRegistry(t), name)
	require.True(t, ok, name)
	return p
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRegistry_Order(t *testing.T) {
	var names []string
	for _, p := range newRegistry(t) {
		names = append(names, p.Format().Name)
	}
	assert.Equal(t, []string{"falabella-credit", "santander-credit", "santander-checking", "falabella-checking"}, names)
}

func TestFalabellaCredit_ParseLine(t *testing.T) {
	p := parserNamed(t, "falabella-credit")

	tests := []struct {
		name        string
		line        string
		date        time.Time
		description string
		amount      int64
		txType      model.TransactionType
	}{
		{
			name:        "purchase with process date suffix",
			line:        "S/I 27/07/2025 Compra falabella plaza vespucio T 37.905 37.905 01/01 sep-2025 37.905",
			date:        date(2025, 7, 27),
			description: "Compra falabella plaza vespucio",
			amount:      -37905,
			txType:      model.TypePurchase,
		},
		{
			name:        "reversal forced to expense",
			line:        "06/08/2025 Anulacion pago automatico abono T 17.040 -17.040 01/01 sep-2025 -17.040",
			date:        date(2025, 8, 6),
			description: "Anulacion pago automatico abono",
			amount:      -17040,
			txType:      model.TypePurchase,
		},
		{
			name:        "minus marked payment is income",
			line:        "10/08/2025 Pago tarjeta cmr -250.000 -250.000",
			date:        date(2025, 8, 10),
			description: "Pago tarjeta cmr",
			amount:      250000,
			txType:      model.TypePayment,
		},
		{
			name:        "currency sign and accent",
			line:        "12/08/2025 Devolución compra ripley A $ 9.990",
			date:        date(2025, 8, 12),
			description: "Devolución compra ripley",
			amount:      -9990,
			txType:      model.TypePurchase,
		},
		{
			name:        "fee vocabulary",
			line:        "31/08/2025 Comision administracion mensual T 3.490 3.490",
			date:        date(2025, 8, 31),
			description: "Comision administracion mensual",
			amount:      -3490,
			txType:      model.TypeCharge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, ok := p.ParseLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.date, txn.Date)
			assert.Equal(t, tt.date.Format(model.DateLayout), txn.ISODate())
			assert.Equal(t, tt.description, txn.Description)
			assert.Equal(t, tt.amount, txn.Amount)
			assert.Equal(t, tt.txType, txn.Type)
			assert.Equal(t, tt.line, txn.RawLine)
			assert.Positive(t, txn.Confidence)
			assert.LessOrEqual(t, txn.Confidence, 100)
		})
	}
}

func TestFalabellaCredit_Rejects(t *testing.T) {
	p := parserNamed(t, "falabella-credit")
	for _, line := range []string{
		"Página 1 de 4 27/07/2025 37.905",
		"27/07/2025 37.905 37.905",
		"S/I 27/07/2025 T 37.905",
		"Compra falabella sin fecha 37.905",
		"27/07/2025 Compra sin monto",
		"31/02/2025 Fecha imposible 1.000",
		"Saldo anterior 27/07/2025 120.000",
		"27/07/25 Compra con fecha corta 1.000",
	} {
		_, ok := p.ParseLine(line)
		assert.False(t, ok, line)
	}
}

func TestSantanderCredit_Grammars(t *testing.T) {
	p := parserNamed(t, "santander-credit")

	tests := []struct {
		name        string
		line        string
		date        time.Time
		description string
		amount      int64
		txType      model.TransactionType
		confidence  int
	}{
		{
			name:        "location and date",
			line:        "SANTIAGO 15/08/25 MERPAGO*UBER 12.500",
			date:        date(2025, 8, 15),
			description: "Mercadopago*UBER",
			amount:      12500,
			txType:      model.TypePurchase,
			confidence:  95,
		},
		{
			name:        "operation and posting dates",
			line:        "15/08/25 16/08/25 PAGO PAC SEGURO 8.900",
			date:        date(2025, 8, 15),
			description: "PAGO PAC SEGURO",
			amount:      8900,
			txType:      model.TypeCharge,
			confidence:  90,
		},
		{
			name:        "installments",
			line:        "15/08/25 TIENDA PARIS 120.000 03/12",
			date:        date(2025, 8, 15),
			description: "TIENDA PARIS",
			amount:      120000,
			txType:      model.TypePurchase,
			confidence:  85,
		},
		{
			name:        "date and amount",
			line:        "20/08/25 JUMBO LAS CONDES $ 45.990",
			date:        date(2025, 8, 20),
			description: "JUMBO LAS CONDES",
			amount:      45990,
			txType:      model.TypePurchase,
			confidence:  80,
		},
		{
			name:        "payment is negative",
			line:        "25/08/25 PAGO TARJETA -250.000",
			date:        date(2025, 8, 25),
			description: "PAGO TARJETA",
			amount:      -250000,
			txType:      model.TypePayment,
			confidence:  80,
		},
		{
			name:        "token fallback",
			line:        "Compra 15/08/25 ripley 33.000 cuota",
			date:        date(2025, 8, 15),
			description: "Compra ripley cuota",
			amount:      33000,
			txType:      model.TypePurchase,
			confidence:  65,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, ok := p.ParseLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.date, txn.Date)
			assert.Equal(t, tt.description, txn.Description)
			assert.Equal(t, tt.amount, txn.Amount)
			assert.Equal(t, tt.txType, txn.Type)
			assert.Equal(t, tt.confidence, txn.Confidence)
		})
	}
}

func TestSantanderCredit_SmallTrailingNumberIsNotAnAmount(t *testing.T) {
	p := parserNamed(t, "santander-credit")
	_, ok := p.ParseLine("15/08/25 CUOTA 3")
	assert.False(t, ok)
}

func TestSantanderChecking_ParseLine(t *testing.T) {
	p := parserNamed(t, "santander-checking")

	tests := []struct {
		name        string
		line        string
		date        time.Time
		description string
		amount      int64
		txType      model.TransactionType
	}{
		{
			name:        "purchase with balance column",
			line:        "15/08 COMPRA REDCOMPRA JUMBO 12.990 1.234.567",
			date:        date(2025, 8, 15),
			description: "COMPRA REDCOMPRA JUMBO",
			amount:      -12990,
			txType:      model.TypePurchase,
		},
		{
			name:        "deposit with document number",
			line:        "20/08 0012345678 TRANSFERENCIA DE JUAN PEREZ 500.000 1.734.567",
			date:        date(2025, 8, 20),
			description: "TRANSFERENCIA DE JUAN PEREZ",
			amount:      500000,
			txType:      model.TypeDeposit,
		},
		{
			name:        "fee",
			line:        "22/08 COMISION MANTENCION 5.990 1.728.577",
			date:        date(2025, 8, 22),
			description: "COMISION MANTENCION",
			amount:      -5990,
			txType:      model.TypeCharge,
		},
		{
			name:        "single amount without balance",
			line:        "28/08 GIRO CAJERO AUTOMATICO 40.000",
			date:        date(2025, 8, 28),
			description: "GIRO CAJERO AUTOMATICO",
			amount:      -40000,
			txType:      model.TypePayment,
		},
		{
			name:        "repeated amount is not a balance",
			line:        "29/08 ABONO REMUNERACION 900.000 900.000",
			date:        date(2025, 8, 29),
			description: "ABONO REMUNERACION",
			amount:      900000,
			txType:      model.TypeDeposit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, ok := p.ParseLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.date, txn.Date)
			assert.Equal(t, tt.description, txn.Description)
			assert.Equal(t, tt.amount, txn.Amount)
			assert.Equal(t, tt.txType, txn.Type)
		})
	}

	_, ok := p.ParseLine("30/08 SALDO DISPONIBLE 1.728.577")
	assert.False(t, ok, "bank filter applies")
	_, ok = p.ParseLine("31/02 COMPRA 1.000")
	assert.False(t, ok, "impossible day")
}

func TestFalabellaChecking_ParseLine(t *testing.T) {
	p := parserNamed(t, "falabella-checking")

	tests := []struct {
		name        string
		line        string
		date        time.Time
		description string
		amount      int64
		txType      model.TransactionType
	}{
		{
			name:        "outgoing transfer",
			line:        "05/08/2025 TRANSFERENCIA A MARIA 150.000 850.000",
			date:        date(2025, 8, 5),
			description: "TRANSFERENCIA A MARIA",
			amount:      -150000,
			txType:      model.TypePayment,
		},
		{
			name:        "salary with bare date",
			line:        "06/08 ABONO SUELDO 1.200.000 2.050.000",
			date:        date(2025, 8, 6),
			description: "ABONO SUELDO",
			amount:      1200000,
			txType:      model.TypeDeposit,
		},
		{
			name:        "minus marked is always a debit",
			line:        "07/08/2025 CARGO AUTOMATICO -45.000 2.005.000",
			date:        date(2025, 8, 7),
			description: "CARGO AUTOMATICO",
			amount:      -45000,
			txType:      model.TypePurchase,
		},
		{
			name:        "minus marked deposit vocabulary",
			line:        "08/08/2025 DEVOLUCION SEGURO -12.000",
			date:        date(2025, 8, 8),
			description: "DEVOLUCION SEGURO",
			amount:      -12000,
			txType:      model.TypePayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, ok := p.ParseLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.date, txn.Date)
			assert.Equal(t, tt.description, txn.Description)
			assert.Equal(t, tt.amount, txn.Amount)
			assert.Equal(t, tt.txType, txn.Type)
		})
	}
}

func TestParseLine_Total(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\t\n",
		"////",
		"-",
		"$",
		"-$",
		"$ ",
		"99/99/9999 x 1.000",
		"00/00 nada 1.000",
		"27/07/2025",
		"37.905",
		"27/07/2025 99999999999999999999999 texto",
		"27/07/2025 texto 999.999.999.999.999.999.999.999",
		"\x00\x01\x02 27/07/2025 \xff\xfe 1.000",
		"S/I",
		"S/I 27/07/2025 S/I 1.000",
		"SANTIAGO 15/08/25",
		"15/08/25 15/08/25 15/08/25",
		"15/08 15/08 15/08 1.000 1.000",
		strings.Repeat("27/07/2025 compra 1.000 ", 200),
		strings.Repeat("ñ", 5000),
		"Página 1 de 3",
		"🙂 27/07/2025 🙂 1.000 🙂",
		"27/07/2025 -0 -0.000 texto",
	}

	for _, p := range newRegistry(t) {
		t.Run(p.Format().Name, func(t *testing.T) {
			for _, in := range inputs {
				var (
					txn model.Transaction
					ok  bool
				)
				require.NotPanics(t, func() { txn, ok = p.ParseLine(in) }, "%q", in)
				if ok {
					assert.NoError(t, txn.Validate(), "%q", in)
				}
			}
		})
	}
}

func TestParseLine_PageMarkerSkippedEverywhere(t *testing.T) {
	for _, p := range newRegistry(t) {
		_, ok := p.ParseLine("27/07/2025 15/08/25 15/08 página 2 compra 1.000")
		assert.False(t, ok, p.Format().Name)
	}
}
