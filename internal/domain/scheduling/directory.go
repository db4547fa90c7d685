package scheduling

// Doctor is an entry in the clinic directory.
type Doctor struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	Qualification  string   `json:"qualification"`
	Experience     string   `json:"experience"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Address        string   `json:"address"`
	Availability   []string `json:"availability"`
	Fees           string   `json:"fees"`
	Rating         string   `json:"rating"`
}

// Specializations are the bookable directory sections, in display order.
var Specializations = []string{"Pulmonologist", "Oncologist", "Radiologist"}

var Times = []string{"09:00 AM", "10:00 AM", "11:00 AM", "02:00 PM", "03:00 PM", "04:00 PM"}

var Reasons = []string{
	"Lung Cancer Screening",
	"Follow-up Consultation",
	"Second Opinion",
	"CT-Scan Review",
	"Symptoms Evaluation",
	"Routine Check-up",
}

var directory = map[string][]Doctor{
	"Pulmonologist": {
		{
			ID:             1,
			Name:           "Dr. Sarah Chen",
			Specialization: "Pulmonologist",
			Qualification:  "MD, FCCP",
			Experience:     "15 years",
			Phone:          "+1-555-0101",
			Email:          "dr.chen@chestcare.com",
			Address:        "123 Chest Care Center, Medical District, NY 10001",
			Availability:   []string{"Monday", "Wednesday", "Friday"},
			Fees:           "₹1500",
			Rating:         "4.8/5",
		},
		{
			ID:             2,
			Name:           "Dr. Michael Rodriguez",
			Specialization: "Pulmonology & Critical Care",
			Qualification:  "MD, MPH",
			Experience:     "12 years",
			Phone:          "+1-555-0102",
			Email:          "dr.rodriguez@lunghealth.org",
			Address:        "456 Respiratory Institute, Health Plaza, NY 10002",
			Availability:   []string{"Tuesday", "Thursday", "Saturday"},
			Fees:           "₹1800",
			Rating:         "4.7/5",
		},
	},
	"Oncologist": {
		{
			ID:             3,
			Name:           "Dr. James Wilson",
			Specialization: "Oncologist",
			Qualification:  "MD, PhD",
			Experience:     "20 years",
			Phone:          "+1-555-0103",
			Email:          "dr.wilson@cancercenter.com",
			Address:        "789 Cancer Care Center, Medical Complex, NY 10003",
			Availability:   []string{"Monday", "Tuesday", "Friday"},
			Fees:           "₹2500",
			Rating:         "4.9/5",
		},
		{
			ID:             4,
			Name:           "Dr. Emily Parker",
			Specialization: "Thoracic Oncology",
			Qualification:  "MD, FACP",
			Experience:     "18 years",
			Phone:          "+1-555-0104",
			Email:          "dr.parker@thoraciccare.org",
			Address:        "321 Thoracic Specialists, Health Tower, NY 10004",
			Availability:   []string{"Wednesday", "Thursday", "Saturday"},
			Fees:           "₹2200",
			Rating:         "4.8/5",
		},
	},
	"Radiologist": {
		{
			ID:             5,
			Name:           "Dr. Robert Kim",
			Specialization: "Radiologist",
			Qualification:  "MD, DABR",
			Experience:     "14 years",
			Phone:          "+1-555-0105",
			Email:          "dr.kim@imagingcenter.com",
			Address:        "654 Advanced Imaging, Diagnostic Plaza, NY 10005",
			Availability:   []string{"Monday", "Wednesday", "Friday", "Saturday"},
			Fees:           "₹1200",
			Rating:         "4.6/5",
		},
	},
}

// Doctors returns the doctors listed under specialization, or every doctor
// when specialization is empty. Unknown specializations yield nil.
func Doctors(specialization string) []Doctor {
	if specialization != "" {
		docs := directory[specialization]
		out := make([]Doctor, len(docs))
		copy(out, docs)
		return out
	}
	var out []Doctor
	for _, spec := range Specializations {
		out = append(out, directory[spec]...)
	}
	return out
}

// FindDoctor looks a doctor up within a specialization.
func FindDoctor(specialization string, id int) (Doctor, bool) {
	for _, d := range directory[specialization] {
		if d.ID == id {
			return d, true
		}
	}
	return Doctor{}, false
}

// DoctorByID looks a doctor up across the whole directory.
func DoctorByID(id int) (Doctor, bool) {
	for _, spec := range Specializations {
		if d, ok := FindDoctor(spec, id); ok {
			return d, true
		}
	}
	return Doctor{}, false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
