package analysis

import "fmt"

// companyNames maps NSE trading symbols to company names so news
// searches match articles that never mention the ticker.
var companyNames = map[string]string{
	"RELIANCE":   "Reliance Industries",
	"TCS":        "Tata Consultancy Services",
	"INFY":       "Infosys",
	"HDFCBANK":   "HDFC Bank",
	"ICICIBANK":  "ICICI Bank",
	"SBIN":       "State Bank of India",
	"WIPRO":      "Wipro",
	"BHARTIARTL": "Bharti Airtel",
	"ITC":        "ITC",
	"LT":         "Larsen & Toubro",
	"TATAMOTORS": "Tata Motors",
	"TATASTEEL":  "Tata Steel",
	"AXISBANK":   "Axis Bank",
	"MARUTI":     "Maruti Suzuki",
	"HCLTECH":    "HCL Technologies",
}

// BuildNewsQuery returns the search query for a symbol's headlines. A
// known symbol searches both the company name and the ticker.
func BuildNewsQuery(symbol string) string {
	if name, ok := companyNames[symbol]; ok {
		return fmt.Sprintf("%q OR %q", name, symbol)
	}
	return fmt.Sprintf("%q stock", symbol)
}
