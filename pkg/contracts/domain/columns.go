// Package domain publishes the column contract of the preprocessing
// output. The downstream training toolkit reads train.csv, valid.csv and
// test.csv with an explicit list of categorical columns, continuous
// columns and a label column; it computes its own normalization statistics
// and categorical encodings from the training file. The names below are
// the stable interface between the two sides.
package domain

// LabelColumn is the regression target of the training files.
const LabelColumn = "Sales"

// CategoricalColumns lists the output columns a downstream consumer
// should treat as categorical.
var CategoricalColumns = []string{
	"Store",
	"DayOfWeek",
	"Year",
	"Month",
	"Day",
	"StateHoliday",
	"CompetitionMonthsOpen",
	"Promo2Weeks",
	"StoreType",
	"Assortment",
	"PromoInterval",
	"CompetitionOpenSinceYear",
	"Promo2SinceYear",
	"State",
	"Week",
	"Events",
	"Promo_fw",
	"Promo_bw",
	"StateHoliday_fw",
	"StateHoliday_bw",
	"SchoolHoliday_fw",
	"SchoolHoliday_bw",
}

// ContinuousColumns lists the output columns a downstream consumer should
// treat as continuous.
var ContinuousColumns = []string{
	"CompetitionDistance",
	"Max_TemperatureC",
	"Mean_TemperatureC",
	"Min_TemperatureC",
	"Max_Humidity",
	"Mean_Humidity",
	"Min_Humidity",
	"Max_Wind_SpeedKm_h",
	"Mean_Wind_SpeedKm_h",
	"CloudCover",
	"trend",
	"trend_DE",
	"AfterStateHoliday",
	"BeforeStateHoliday",
	"Promo",
	"SchoolHoliday",
}
