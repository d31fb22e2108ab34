package models

import "time"

// InstitutionDocumentID is the fixed _id of the singleton document.
const InstitutionDocumentID = "institution"

// Rectorate describes the head of the institution.
type Rectorate struct {
	Name    string `bson:"nombre" json:"nombre"`
	Title   string `bson:"cargo" json:"cargo"`
	Message string `bson:"mensaje" json:"mensaje"`
	Photo   string `bson:"foto" json:"foto"`
}

// Contact holds the public contact channels.
type Contact struct {
	Address     string `bson:"direccion" json:"direccion"`
	City        string `bson:"ciudad" json:"ciudad"`
	Department  string `bson:"departamento" json:"departamento"`
	Phone       string `bson:"telefono" json:"telefono"`
	Mobile      string `bson:"celular" json:"celular"`
	Email       string `bson:"email" json:"email"`
	OfficeHours string `bson:"horarioAtencion" json:"horarioAtencion"`
}

// SocialNetworks holds profile URLs.
type SocialNetworks struct {
	Facebook  string `bson:"facebook" json:"facebook"`
	Instagram string `bson:"instagram" json:"instagram"`
	WhatsApp  string `bson:"whatsapp" json:"whatsapp"`
	YouTube   string `bson:"youtube" json:"youtube"`
	Twitter   string `bson:"twitter" json:"twitter"`
	LinkedIn  string `bson:"linkedin" json:"linkedin"`
	TikTok    string `bson:"tiktok" json:"tiktok"`
}

// Images holds branding assets.
type Images struct {
	Logo       string   `bson:"logo" json:"logo"`
	LogoDark   string   `bson:"logoDark" json:"logoDark"`
	Banner     string   `bson:"banner" json:"banner"`
	Facilities []string `bson:"instalaciones" json:"instalaciones"`
}

// Legal holds registration data.
type Legal struct {
	TaxID          string `bson:"nit" json:"nit"`
	CompanyName    string `bson:"razonSocial" json:"razonSocial"`
	Representative string `bson:"representanteLegal" json:"representanteLegal"`
}

// SEO holds metadata for the public site.
type SEO struct {
	MetaTitle       string   `bson:"metaTitle" json:"metaTitle"`
	MetaDescription string   `bson:"metaDescription" json:"metaDescription"`
	Keywords        []string `bson:"keywords" json:"keywords"`
}

// Institution is the singleton institution information document.
type Institution struct {
	ID             string         `bson:"_id" json:"-"`
	Mission        string         `bson:"mision" json:"mision"`
	Vision         string         `bson:"vision" json:"vision"`
	History        string         `bson:"historia" json:"historia"`
	Values         []string       `bson:"valores" json:"valores"`
	Objectives     string         `bson:"objetivos" json:"objetivos"`
	Rectorate      Rectorate      `bson:"rectoria" json:"rectoria"`
	Contact        Contact        `bson:"contacto" json:"contacto"`
	SocialNetworks SocialNetworks `bson:"redesSociales" json:"redesSociales"`
	Images         Images         `bson:"imagenes" json:"imagenes"`
	Legal          Legal          `bson:"legal" json:"legal"`
	Accreditations []string       `bson:"acreditaciones" json:"acreditaciones"`
	SEO            SEO            `bson:"seo" json:"seo"`
	UpdatedBy      string         `bson:"actualizadoPor,omitempty" json:"actualizadoPor,omitempty"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Institution sections that may be replaced or merged individually.
const (
	SectionMission        = "mision"
	SectionVision         = "vision"
	SectionHistory        = "historia"
	SectionValues         = "valores"
	SectionObjectives     = "objetivos"
	SectionRectorate      = "rectoria"
	SectionContact        = "contacto"
	SectionSocialNetworks = "redesSociales"
	SectionImages         = "imagenes"
	SectionLegal          = "legal"
	SectionAccreditations = "acreditaciones"
	SectionSEO            = "seo"
)

// InstitutionSections lists every top-level section accepted by a full update.
var InstitutionSections = []string{
	SectionMission, SectionVision, SectionHistory, SectionValues, SectionObjectives,
	SectionRectorate, SectionContact, SectionSocialNetworks, SectionImages,
	SectionLegal, SectionAccreditations, SectionSEO,
}

// DefaultInstitution is created the first time the document is read.
func DefaultInstitution(now time.Time) Institution {
	return Institution{
		ID:      InstitutionDocumentID,
		Mission: "Formar técnicos laborales competentes y éticos que contribuyan al desarrollo de la sociedad.",
		Vision:  "Ser la institución técnica líder en formación de calidad en la región.",
		History: "FUNDALink fue fundada en 2000 con el objetivo de brindar educación técnica de calidad.",
		Values:  []string{},
		Rectorate: Rectorate{
			Title: "Rector(a)",
		},
		Contact: Contact{
			Address:     "Calle 5 # 45-32",
			City:        "Cali",
			Department:  "Valle del Cauca",
			Phone:       "555-1234",
			Email:       "info@fundalink.edu.co",
			OfficeHours: "Lunes a Viernes: 8:00 AM - 5:00 PM",
		},
		Images:         Images{Facilities: []string{}},
		Accreditations: []string{},
		SEO: SEO{
			MetaTitle:       "FUNDALink - Institución Educativa",
			MetaDescription: "Institución educativa técnica de excelencia",
			Keywords:        []string{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// InstitutionUpdate carries the sections of a full update. Nil sections are left untouched.
type InstitutionUpdate struct {
	Mission        *string         `json:"mision"`
	Vision         *string         `json:"vision"`
	History        *string         `json:"historia"`
	Values         []string        `json:"valores"`
	Objectives     *string         `json:"objetivos"`
	Rectorate      *Rectorate      `json:"rectoria"`
	Contact        *Contact        `json:"contacto"`
	SocialNetworks *SocialNetworks `json:"redesSociales"`
	Images         *Images         `json:"imagenes"`
	Legal          *Legal          `json:"legal"`
	Accreditations []string        `json:"acreditaciones"`
	SEO            *SEO            `json:"seo"`
}

// Empty reports whether no section was supplied.
func (u InstitutionUpdate) Empty() bool {
	return u.Mission == nil && u.Vision == nil && u.History == nil && u.Values == nil &&
		u.Objectives == nil && u.Rectorate == nil && u.Contact == nil && u.SocialNetworks == nil &&
		u.Images == nil && u.Legal == nil && u.Accreditations == nil && u.SEO == nil
}

// InstitutionSectionFields lists the keys accepted by per-section merges.
var InstitutionSectionFields = map[string][]string{
	SectionSocialNetworks: {"facebook", "instagram", "whatsapp", "youtube", "twitter", "linkedin", "tiktok"},
	SectionContact:        {"direccion", "ciudad", "departamento", "telefono", "celular", "email", "horarioAtencion"},
	SectionRectorate:      {"nombre", "cargo", "mensaje", "foto"},
}
