package model

type Role string

const (
	RoleAdmin   Role = "admin"
	RolePatient Role = "patient"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	PatientID    string `json:"patientId,omitempty"`
}

type Patient struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	DOB           string          `json:"dob"`
	Gender        string          `json:"gender"`
	Occupation    string          `json:"occupation"`
	MaritalStatus string          `json:"maritalStatus,omitempty"`
	Address       string          `json:"address,omitempty"`
	AvatarURL     string          `json:"avatarUrl,omitempty"`
	Notes         []Note          `json:"notes"`
	Lifestyle     Lifestyle       `json:"lifestyle"`
	Anthropometry []Anthropometry `json:"anthropometry"`
	Clinical      ClinicalHistory `json:"clinical"`
	Plans         []Plan          `json:"plans"`
	Adherence     []Adherence     `json:"adherence"`
	Labs          []LabResult     `json:"labs"`
}

type Note struct {
	ID              string     `json:"id"`
	Date            string     `json:"date"`
	Objective       string     `json:"objective"`
	Observations    string     `json:"observations"`
	Images          []string   `json:"images,omitempty"`
	NextAppointment string     `json:"nextAppointment,omitempty"`
	Evolution       *Evolution `json:"evolution,omitempty"`
}

// Evolution is the fixed follow-up questionnaire attached to a visit note.
type Evolution struct {
	FeelingWithPlan string `json:"feelingWithPlan"`
	HungerOrAnxiety string `json:"hungerOrAnxiety"`
	Inflammation    string `json:"inflammation"`
	Constipation    string `json:"constipation"`
	Stress          string `json:"stress"`
	Adherence       string `json:"adherence"`
	Sleep           string `json:"sleep"`
	Water           string `json:"water"`
	EatingOut       string `json:"eatingOut"`
	Exercise        string `json:"exercise"`
	Modifications   string `json:"modifications"`
	Management      string `json:"management"`
}

type Lifestyle struct {
	Activity          LifestyleActivity    `json:"activity"`
	Sleep             LifestyleSleep       `json:"sleep"`
	StressLevel       string               `json:"stressLevel,omitempty"`
	Diet              LifestyleDiet        `json:"diet"`
	BowelMovement     string               `json:"bowelMovement,omitempty"`
	FoodAllergies     []string             `json:"foodAllergies,omitempty"`
	FoodIntolerances  []string             `json:"foodIntolerances,omitempty"`
	Supplementation   string               `json:"supplementation,omitempty"`
	WeightLossMeds    string               `json:"weightLossMeds,omitempty"`
	ToxicSubstances   string               `json:"toxicSubstances,omitempty"`
	DailyRoutine      string               `json:"dailyRoutine,omitempty"`
	SittingHours      string               `json:"sittingHours,omitempty"`
	WakeUpTime        string               `json:"wakeUpTime,omitempty"`
	BedTime           string               `json:"bedTime,omitempty"`
	EnergyLevel       string               `json:"energyLevel,omitempty"`
	OtherHealthCare   string               `json:"otherHealthCare,omitempty"`
	Preferences       LifestylePreferences `json:"preferences"`
	NutritionalHabits *NutritionalHabits   `json:"nutritionalHabits,omitempty"`
}

type LifestyleActivity struct {
	Regular   bool   `json:"regular"`
	Details   string `json:"details"`
	Type      string `json:"type,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type LifestyleSleep struct {
	Hours  string `json:"hours"`
	Stress string `json:"stress"`
}

type LifestyleDiet struct {
	Meals            string `json:"meals"`
	Water            string `json:"water"`
	Alcohol          bool   `json:"alcohol"`
	AlcoholType      string `json:"alcoholType,omitempty"`
	AlcoholFrequency string `json:"alcoholFrequency,omitempty"`
	Tobacco          bool   `json:"tobacco"`
	TobaccoType      string `json:"tobaccoType,omitempty"`
	TobaccoFrequency string `json:"tobaccoFrequency,omitempty"`
}

type LifestylePreferences struct {
	Likes     string `json:"likes"`
	Dislikes  string `json:"dislikes"`
	Budget    string `json:"budget"`
	Access    string `json:"access"`
	EatingOut string `json:"eatingOut"`
}

type NutritionalHabits struct {
	DietType               string `json:"dietType,omitempty"`
	MealsPerDay            string `json:"mealsPerDay,omitempty"`
	CookingHabits          string `json:"cookingHabits,omitempty"`
	MealTimes              string `json:"mealTimes,omitempty"`
	EatingCompany          string `json:"eatingCompany,omitempty"`
	FavoriteRecipes        string `json:"favoriteRecipes,omitempty"`
	WaterConsumption       string `json:"waterConsumption,omitempty"`
	CoffeeConsumption      string `json:"coffeeConsumption,omitempty"`
	EatingOutFrequency     string `json:"eatingOutFrequency,omitempty"`
	ProcessedFoodFrequency string `json:"processedFoodFrequency,omitempty"`
}

type ClinicalHistory struct {
	Background        ClinicalBackground `json:"background"`
	Gyneco            *Gyneco            `json:"gyneco,omitempty"`
	Recall24h         Recall24h          `json:"recall24h"`
	NutritionalHabits *NutritionalHabits `json:"nutritionalHabits,omitempty"`
	Frequencies       map[string]string  `json:"frequencies"`
}

type ClinicalBackground struct {
	Motive          string        `json:"motive"`
	Medications     string        `json:"medications"`
	FamilyHistory   string        `json:"familyHistory"`
	Pathological    *Pathological `json:"pathological,omitempty"`
	Symptoms        []string      `json:"symptoms,omitempty"`
	CurrentSymptoms string        `json:"currentSymptoms,omitempty"`
}

type Pathological struct {
	Diabetes     bool   `json:"diabetes"`
	Cancer       bool   `json:"cancer"`
	Dislipidemia bool   `json:"dislipidemia"`
	Anemia       bool   `json:"anemia"`
	Hypertension bool   `json:"hypertension"`
	Renal        bool   `json:"renal"`
	Others       string `json:"others"`
	Allergies    string `json:"allergies"`
}

type Gyneco struct {
	G                string `json:"g"`
	P                string `json:"p"`
	C                string `json:"c"`
	A                string `json:"a"`
	FUM              string `json:"fum"`
	Contraception    string `json:"contraception"`
	Menarche         string `json:"menarche,omitempty"`
	CycleDuration    string `json:"cycleDuration,omitempty"`
	CycleRegularity  string `json:"cycleRegularity,omitempty"`
}

type Recall24h struct {
	Breakfast string `json:"breakfast"`
	SnackAM   string `json:"snackAM"`
	Lunch     string `json:"lunch"`
	SnackPM   string `json:"snackPM"`
	Dinner    string `json:"dinner"`
}

type Anthropometry struct {
	ID            string        `json:"id"`
	Date          string        `json:"date"`
	Weight        float64       `json:"weight"`
	Height        float64       `json:"height"`
	IMC           float64       `json:"imc"`
	Circumference Circumference `json:"circumference"`
	Folds         Folds         `json:"folds"`
	Activity      float64       `json:"activity,omitempty"`
	BMR           float64       `json:"bmr,omitempty"`
	TDEE          float64       `json:"tdee,omitempty"`
	Notes         string        `json:"notes"`
}

type Circumference struct {
	Waist   float64 `json:"waist"`
	Hip     float64 `json:"hip"`
	Abdomen float64 `json:"abdomen"`
	Chest   float64 `json:"chest"`
	ArmR    float64 `json:"armR"`
	ArmL    float64 `json:"armL"`
	Thigh   float64 `json:"thigh"`
	Calf    float64 `json:"calf"`
}

// Folds holds the six skin-fold measurements in millimetres.
type Folds struct {
	Tricipital  float64 `json:"tricipital"`
	Bicipital   float64 `json:"bicipital"`
	Subscapular float64 `json:"subscapular"`
	Suprailiac  float64 `json:"suprailiac"`
	Abdominal   float64 `json:"abdominal"`
	Quadriceps  float64 `json:"quadriceps"`
}

type Meal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type MealSection struct {
	Title   string `json:"title"`
	Options []Meal `json:"options"`
}

type Macronutrients struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

type Plan struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	KcalTarget     int             `json:"kcalTarget"`
	Active         bool            `json:"active"`
	Sections       []MealSection   `json:"sections"`
	Supplements    string          `json:"supplements"`
	Avoid          string          `json:"avoid"`
	Macronutrients *Macronutrients `json:"macronutrients,omitempty"`
	CreatedAt      string          `json:"createdAt"`
}

type AdherenceChecks struct {
	Breakfast   bool `json:"breakfast"`
	Lunch       bool `json:"lunch"`
	Dinner      bool `json:"dinner"`
	Supplements bool `json:"supplements"`
}

type Adherence struct {
	Date      string          `json:"date"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Checks    AdherenceChecks `json:"checks"`
}

type LabMarker struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Flag  string `json:"flag,omitempty"`
}

type LabResult struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Date        string      `json:"date"`
	Attachments []string    `json:"attachments,omitempty"`
	Markers     []LabMarker `json:"markers"`
}

type ThemeConfig struct {
	AppBg        string `json:"appBg"`
	CardBg       string `json:"cardBg"`
	TextColor    string `json:"textColor"`
	PrimaryColor string `json:"primaryColor"`
	FontFamily   string `json:"fontFamily"`
}
