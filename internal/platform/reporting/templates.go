package reporting

import (
	"fmt"
	"strings"
	"time"
)

const (
	reportFooter     = "Report generated by Lung Cancer Detection System"
	generatedLayout  = "2006-01-02 15:04:05"
	footerDateLayout = "January 02, 2006"
	notProvided      = "Not provided"
	notSpecified     = "Not specified"
	notAvailable     = "N/A"
)

// Patient identifies who a report is about.
type Patient struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func section(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func numbered(sb *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
}

// CTScanReport is the input for the image analysis report.
type CTScanReport struct {
	Patient          Patient
	FileName         string
	FileType         string
	FileSize         int64
	RiskLevel        string
	FinalPrediction  string
	CancerConfidence float64
	NormalConfidence float64
	ConfidenceDetail string
	Recommendations  []string
	GeneratedAt      time.Time
}

func (r CTScanReport) Document() Document {
	var sb strings.Builder
	sb.WriteString("LUNG CANCER DETECTION REPORT - CT-SCAN ANALYSIS\n")
	sb.WriteString("================================================\n\n")
	fmt.Fprintf(&sb, "Generated on: %s\n", r.GeneratedAt.Format(generatedLayout))

	section(&sb, "PATIENT INFORMATION")
	fmt.Fprintf(&sb, "Name: %s %s\n", orDefault(r.Patient.FirstName, notAvailable), orDefault(r.Patient.LastName, notAvailable))
	fmt.Fprintf(&sb, "Username: %s\n", r.Patient.Username)

	section(&sb, "CT-SCAN INFORMATION")
	fmt.Fprintf(&sb, "File Name: %s\n", r.FileName)
	fmt.Fprintf(&sb, "File Type: %s\n", r.FileType)
	fmt.Fprintf(&sb, "File Size: %d bytes\n", r.FileSize)

	section(&sb, "AI PREDICTION RESULTS")
	fmt.Fprintf(&sb, "Risk Level: %s\n", r.RiskLevel)
	fmt.Fprintf(&sb, "Final Prediction: %s\n", r.FinalPrediction)
	fmt.Fprintf(&sb, "Cancer Confidence: %.2f%%\n", r.CancerConfidence*100)
	fmt.Fprintf(&sb, "Normal Confidence: %.2f%%\n", r.NormalConfidence*100)

	section(&sb, "CONFIDENCE ANALYSIS")
	sb.WriteString(r.ConfidenceDetail + "\n")

	section(&sb, "MEDICAL RECOMMENDATIONS")
	numbered(&sb, r.Recommendations)

	section(&sb, "TECHNICAL DETAILS")
	sb.WriteString("AI Model: Convolutional Neural Network (CNN)\n")
	sb.WriteString("Model Input: CT-Scan Images (150x150 pixels)\n")
	sb.WriteString("Classification: Binary (Cancer/Normal)\n")
	sb.WriteString("Risk Thresholds: High >= 75% cancer confidence, Medium >= 25%\n")

	section(&sb, "IMPORTANT MEDICAL DISCLAIMER")
	sb.WriteString("This report is generated by an AI system for assistive purposes only.\n")
	sb.WriteString("It should NOT be used as a substitute for professional medical diagnosis.\n")
	sb.WriteString("Always consult with qualified healthcare providers for medical decisions.\n")
	sb.WriteString("False positives and false negatives are possible with AI systems.\n\n")
	sb.WriteString(reportFooter + "\n")
	sb.WriteString(r.GeneratedAt.Format(footerDateLayout) + "\n")

	return Document{
		Title:       "LUNG CANCER DETECTION REPORT",
		Subtitle:    "CT-SCAN ANALYSIS",
		Body:        sb.String(),
		GeneratedAt: r.GeneratedAt,
	}
}

// Parameter is one named health input.
type Parameter struct {
	Name  string
	Value string
}

// HealthReport is the input for the tabular risk assessment report.
type HealthReport struct {
	Patient         Patient
	Parameters      []Parameter
	RiskLevel       string
	Prediction      string
	Interpretation  string
	Recommendations []string
	GeneratedAt     time.Time
}

func (r HealthReport) Document() Document {
	var sb strings.Builder
	sb.WriteString("LUNG CANCER RISK ASSESSMENT REPORT - HEALTH PARAMETERS ANALYSIS\n")
	sb.WriteString("===============================================================\n\n")
	fmt.Fprintf(&sb, "Generated on: %s\n", r.GeneratedAt.Format(generatedLayout))

	section(&sb, "PATIENT INFORMATION")
	fmt.Fprintf(&sb, "Name: %s %s\n", orDefault(r.Patient.FirstName, notAvailable), orDefault(r.Patient.LastName, notAvailable))
	fmt.Fprintf(&sb, "Username: %s\n", r.Patient.Username)

	section(&sb, "HEALTH PARAMETERS ANALYZED")
	for _, p := range r.Parameters {
		fmt.Fprintf(&sb, "- %s: %s\n", p.Name, orDefault(p.Value, notAvailable))
	}

	section(&sb, "RISK ASSESSMENT RESULTS")
	fmt.Fprintf(&sb, "Risk Level: %s\n", r.RiskLevel)
	fmt.Fprintf(&sb, "Prediction: %s\n", r.Prediction)

	section(&sb, "RISK INTERPRETATION")
	sb.WriteString(r.Interpretation + "\n")

	section(&sb, "RECOMMENDED ACTIONS")
	numbered(&sb, r.Recommendations)

	section(&sb, "MODEL INFORMATION")
	sb.WriteString("AI Model: Ensemble Machine Learning Model\n")
	sb.WriteString("Algorithm: Multiple Classifiers (SVM, Decision Tree, KNN)\n")
	fmt.Fprintf(&sb, "Features: %d health parameters\n", len(r.Parameters))

	section(&sb, "IMPORTANT DISCLAIMER")
	sb.WriteString("This assessment is based on machine learning analysis of provided parameters.\n")
	sb.WriteString("It is intended for educational and screening purposes only.\n")
	sb.WriteString("NOT a substitute for professional medical diagnosis.\n")
	sb.WriteString("Always consult healthcare providers for medical decisions.\n\n")
	sb.WriteString(reportFooter + "\n")
	sb.WriteString(r.GeneratedAt.Format(footerDateLayout) + "\n")

	return Document{
		Title:       "LUNG CANCER RISK ASSESSMENT REPORT",
		Subtitle:    "HEALTH PARAMETERS ANALYSIS",
		Body:        sb.String(),
		GeneratedAt: r.GeneratedAt,
	}
}

// Doctor is the practitioner section of a confirmation.
type Doctor struct {
	Name           string
	Specialization string
	Qualification  string
	Experience     string
	Phone          string
	Email          string
	Address        string
	Fees           string
}

// AppointmentConfirmation is the input for a booking confirmation.
type AppointmentConfirmation struct {
	AppointmentID     string
	Date              string
	Time              string
	Status            string
	Patient           Patient
	Doctor            Doctor
	Reason            string
	Symptoms          string
	PreviousDiagnosis string
	GeneratedAt       time.Time
}

func (a AppointmentConfirmation) Document() Document {
	var sb strings.Builder
	sb.WriteString("MEDICAL APPOINTMENT CONFIRMATION\n")
	sb.WriteString("=================================\n")

	section(&sb, "APPOINTMENT DETAILS")
	fmt.Fprintf(&sb, "Appointment ID: %s\n", a.AppointmentID)
	fmt.Fprintf(&sb, "Date: %s\n", a.Date)
	fmt.Fprintf(&sb, "Time: %s\n", a.Time)
	fmt.Fprintf(&sb, "Status: %s\n", a.Status)

	section(&sb, "PATIENT INFORMATION")
	fmt.Fprintf(&sb, "Name: %s %s\n", a.Patient.FirstName, a.Patient.LastName)
	fmt.Fprintf(&sb, "Phone: %s\n", a.Patient.Phone)
	fmt.Fprintf(&sb, "Email: %s\n", orDefault(a.Patient.Email, notProvided))
	fmt.Fprintf(&sb, "Address: %s\n", a.Patient.Address)

	section(&sb, "DOCTOR INFORMATION")
	fmt.Fprintf(&sb, "Name: %s\n", a.Doctor.Name)
	fmt.Fprintf(&sb, "Specialization: %s\n", a.Doctor.Specialization)
	fmt.Fprintf(&sb, "Qualification: %s\n", a.Doctor.Qualification)
	fmt.Fprintf(&sb, "Experience: %s\n", a.Doctor.Experience)
	fmt.Fprintf(&sb, "Phone: %s\n", a.Doctor.Phone)
	fmt.Fprintf(&sb, "Email: %s\n", a.Doctor.Email)
	fmt.Fprintf(&sb, "Address: %s\n", a.Doctor.Address)
	fmt.Fprintf(&sb, "Consultation Fees: %s\n", a.Doctor.Fees)

	section(&sb, "MEDICAL CONSULTATION DETAILS")
	fmt.Fprintf(&sb, "Reason for Visit: %s\n", a.Reason)
	fmt.Fprintf(&sb, "Symptoms: %s\n", a.Symptoms)
	fmt.Fprintf(&sb, "Previous Diagnosis: %s\n", orDefault(a.PreviousDiagnosis, notSpecified))

	section(&sb, "IMPORTANT INSTRUCTIONS")
	numbered(&sb, []string{
		"Please arrive 15 minutes before your scheduled appointment time",
		"Bring your ID and insurance card (if applicable)",
		"Bring any previous medical reports or test results",
		"List of current medications",
		"Emergency contact information",
	})

	section(&sb, "CANCELLATION POLICY")
	sb.WriteString("- Please cancel at least 24 hours in advance\n")
	sb.WriteString("- Late cancellations may incur a fee\n")
	sb.WriteString("- Multiple no-shows may affect future bookings\n\n")
	fmt.Fprintf(&sb, "Contact our office for any changes: %s\n\n", a.Doctor.Phone)
	fmt.Fprintf(&sb, "Generated on: %s\n", a.GeneratedAt.Format(generatedLayout))

	return Document{
		Title:       "MEDICAL APPOINTMENT CONFIRMATION",
		Body:        sb.String(),
		GeneratedAt: a.GeneratedAt,
	}
}

// Count is one labelled tally in an analytics report.
type Count struct {
	Label string
	N     int
}

// AnalyticsReport is the input for the admin analytics export.
type AnalyticsReport struct {
	TotalUsers        int
	TotalAppointments int
	ByStatus          []Count
	BySpecialization  []Count
	Predictions       []Count
	Users             []Patient
	GeneratedAt       time.Time
}

func (r AnalyticsReport) Document() Document {
	var sb strings.Builder
	sb.WriteString("LUNG CANCER DETECTION SYSTEM - ADMIN ANALYTICS REPORT\n")
	sb.WriteString("=====================================================\n\n")
	fmt.Fprintf(&sb, "Generated on: %s\n", r.GeneratedAt.Format(generatedLayout))

	section(&sb, "SYSTEM STATISTICS")
	fmt.Fprintf(&sb, "Total Users: %d\n", r.TotalUsers)
	fmt.Fprintf(&sb, "Total Appointments: %d\n", r.TotalAppointments)

	section(&sb, "APPOINTMENT BREAKDOWN")
	for _, c := range r.ByStatus {
		fmt.Fprintf(&sb, "%s: %d appointments\n", c.Label, c.N)
	}

	section(&sb, "SPECIALIZATION BREAKDOWN")
	for _, c := range r.BySpecialization {
		fmt.Fprintf(&sb, "%s: %d appointments\n", c.Label, c.N)
	}

	section(&sb, "PREDICTION USAGE")
	for _, c := range r.Predictions {
		fmt.Fprintf(&sb, "%s: %d predictions\n", c.Label, c.N)
	}

	section(&sb, "USER REGISTRATION OVERVIEW")
	for _, u := range r.Users {
		fmt.Fprintf(&sb, "Username: %s, Name: %s %s, Email: %s\n", u.Username,
			orDefault(u.FirstName, notAvailable), orDefault(u.LastName, notAvailable), orDefault(u.Email, notAvailable))
	}

	return Document{
		Title:       "ADMIN ANALYTICS REPORT",
		Body:        sb.String(),
		GeneratedAt: r.GeneratedAt,
	}
}
