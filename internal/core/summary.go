package core

// CategoryAmount is one slice of a category breakdown.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	Percent  int      `json:"percent"`
}

// CategoryTotal counts the expenses and spend of one category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	Amount   Money    `json:"amount"`
}

// SentimentAmount aggregates the expenses labeled with one sentiment.
// Percent is relative to the labeled total.
type SentimentAmount struct {
	Sentiment Sentiment `json:"sentiment"`
	Count     int       `json:"count"`
	Amount    Money     `json:"amount"`
	Percent   int       `json:"percent"`
}

// SentimentOverview summarizes how expenses were labeled after the fact.
type SentimentOverview struct {
	BySentiment            []SentimentAmount `json:"bySentiment"`
	TotalCount             int               `json:"totalCount"`
	LabeledCount           int               `json:"labeledCount"`
	LabeledAmount          Money             `json:"labeledAmount"`
	TaggedPercent          int               `json:"taggedPercent"`
	SavingsOpportunity     Money             `json:"savingsOpportunity"`
	MonthlySavingsEstimate Money             `json:"monthlySavingsEstimate"`
}

// MonthTotal is one point of a monthly series.
type MonthTotal struct {
	Key   string `json:"key"`   // YYYY-MM
	Label string `json:"label"` // Jan
	Total Money  `json:"total"`
}

// Summary backs the dashboard cards.
type Summary struct {
	Count        int              `json:"count"`
	TotalSpent   Money            `json:"totalSpent"`
	MonthlySpent Money            `json:"monthlySpent"`
	DailyAverage Money            `json:"dailyAverage"`
	TopCategory  Option[Category] `json:"topCategory"`
}
