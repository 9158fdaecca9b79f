package main

// Badge is a colored technology tag.
type Badge struct {
	Name  string
	Color string
}

// Dark reports whether the badge needs dark text.
func (b Badge) Dark() bool { return b.Color == "#FF8C1A" }

type Project struct {
	ID          string
	Title       string
	Description string
	Tech        []Badge
	Repo        string // empty while the project is unreleased
	Featured    bool
}

type Certification struct {
	Title       string
	Tags        []string
	Institution string
	Year        string
}

type Social struct {
	ID      string
	Network string
	Handle  string
	URL     string
}

type TechIcon struct {
	ID    string
	Name  string
	Color string
}

// Language holds every translated string on the page.
type Language struct {
	Code      string
	Other     string
	Navbar    [3]string
	MenuLabel string
	OpenBadge string

	HeroTitle1, HeroTitle2, HeroDesc string

	TechTitle, TechDesc, TechAndMore string

	ProjectsTitle, ProjectsDesc string
	Projects                    []Project
	ComingSoon                  string

	CertificationsTitle, CertificationsDesc string
	Certifications                          []Certification

	SocialTitle, SocialDesc string
	Rights                  string
}

var (
	Owner = "Axel Valle"

	TechIcons = []TechIcon{
		{"techicon-card-0", "TypeScript", "#3178c6"},
		{"techicon-card-1", "HTML5", "#e34c26"},
		{"techicon-card-2", "CSS3", "#1572b6"},
		{"techicon-card-3", "Dart", "#0175c2"},
		{"techicon-card-4", "Flutter", "#02569b"},
		{"techicon-card-5", "PHP", "#777bb4"},
		{"techicon-card-6", "Angular", "#dd0031"},
		{"techicon-card-7", "Git", "#f34f29"},
		{"techicon-card-8", "MySQL", "#4479a1"},
		{"techicon-card-9", "Python", "#3776ab"},
		{"techicon-card-10", "PostgreSQL", "#336791"},
		{"techicon-card-11", "Netlify", "#00C7B7"},
	}

	Socials = []Social{
		{"social-card-0", "Instagram", "@perpetuaa_v", "https://instagram.com/perpetuaa_v"},
		{"social-card-1", "X (formerly Twitter)", "@perpetua_v", "https://twitter.com/perpetua_v"},
		{"social-card-2", "Github", "@axelvalle", "https://github.com/axelvalle"},
		{"social-card-3", "Email", "voldsoy@hotmail.com", "mailto:voldsoy@hotmail.com"},
	}
)

var stockFlow = Project{
	ID:          "project-card-1",
	Title:       "StockFlow Mama Pola",
	Description: "Mobile inventory and statistics app for small businesses.",
	Tech:        []Badge{{"Flutter", "#02569b"}, {"Dart", "#0175c2"}},
	Repo:        "https://github.com/axelvalle/stockflow-mama-pola",
}

var yaleli = Project{
	ID:          "project-card-2",
	Title:       "Yaleli Creations",
	Description: "Coming soon...",
	Tech:        []Badge{{"HTML", "#e34c26"}, {"CSS", "#1572b6"}, {"TS", "#3178c6"}, {"Angular", "#dd0031"}},
	Featured:    true,
}

var wimaxTech = []Badge{{"SQL Server", "#23272f"}, {"C#", "#178600"}, {".NET Framework", "#512BD4"}}

var languages = map[string]Language{
	"en": {
		Code:        "en",
		Other:       "es",
		Navbar:      [3]string{"Projects", "Technologies", "Social Media"},
		MenuLabel:   "Open menu",
		OpenBadge:   "Open to Work",
		HeroTitle1:  "Systems",
		HeroTitle2:  "Engineer",
		HeroDesc:    `"My name is Axel. I'm a Systems Engineering student and a passionate developer, specializing in mobile and web development."`,
		TechTitle:   "Technologies",
		TechDesc:    "Skills and tools that I've used in my projects",
		TechAndMore: "and more...",

		ProjectsTitle: "Projects",
		ProjectsDesc:  "A little bit about my work...",
		Projects: []Project{
			{
				ID:          "project-card-0",
				Title:       "WIMAX Medical Center",
				Description: "Vaccination management system using SQL Server, C# and .NET Framework.",
				Tech:        wimaxTech,
				Repo:        "https://github.com/axelvalle/FINALWIMAX",
			},
			stockFlow,
			yaleli,
			{
				ID:          "project-card-3",
				Title:       "Business Administration",
				Description: "Desktop application in Java for business management: products, suppliers and payroll.",
				Tech:        []Badge{{"Java", "#3178c6"}, {"Swing", "#FF8C1A"}, {"Text Files", "#23272f"}},
				Repo:        "https://github.com/axelvalle/Administracion_Empresas",
			},
		},
		ComingSoon: "Coming soon",

		CertificationsTitle: "Certifications",
		CertificationsDesc:  "Certifications and training obtained from recognized institutions.",
		Certifications: []Certification{
			{"Intermediate Python Programming", []string{"Python", "Intermediate"}, "UNI Postgraduate Nicaragua", "2023"},
			{"Programming with PHP & MVC", []string{"PHP", "MVC"}, "UNI Postgraduate Nicaragua", "2024"},
		},

		SocialTitle: "Social Media",
		SocialDesc:  "You can find me on...",
		Rights:      "All rights reserved.",
	},
	"es": {
		Code:        "es",
		Other:       "en",
		Navbar:      [3]string{"Proyectos", "Tecnologías", "Redes Sociales"},
		MenuLabel:   "Abrir menú",
		OpenBadge:   "Listo para trabajar",
		HeroTitle1:  "Ingeniero",
		HeroTitle2:  "de Sistemas",
		HeroDesc:    `"Mi nombre es Axel. Soy estudiante de Ingeniería en Sistemas y un desarrollador apasionado, especializado en desarrollo móvil y web."`,
		TechTitle:   "Tecnologías",
		TechDesc:    "Habilidades y herramientas que he usado en mis proyectos",
		TechAndMore: "y más...",

		ProjectsTitle: "Proyectos",
		ProjectsDesc:  "Un poco sobre mi trabajo...",
		Projects: []Project{
			{
				ID:          "project-card-0",
				Title:       "WIMAX Centro Médico",
				Description: "Sistema de gestión de vacunación usando SQL Server, C# y .NET Framework.",
				Tech:        wimaxTech,
				Repo:        "https://github.com/axelvalle/FINALWIMAX",
			},
			stockFlow,
			yaleli,
			{
				ID:          "project-card-3",
				Title:       "Administración de Empresas",
				Description: "Aplicación de escritorio en Java para la gestión administrativa de empresas: productos, proveedores y planillas de empleados.",
				Tech:        []Badge{{"Java", "#3178c6"}, {"Swing", "#FF8C1A"}, {"Archivos de texto", "#23272f"}},
				Repo:        "https://github.com/axelvalle/Administracion_Empresas",
			},
		},
		ComingSoon: "Próximamente",

		CertificationsTitle: "Certificaciones",
		CertificationsDesc:  "Certificados y capacitaciones obtenidas en instituciones reconocidas.",
		Certifications: []Certification{
			{"Programación Intermedia con Python", []string{"Python", "Intermedio"}, "UNI Postgrado Nicaragua", "2023"},
			{"Programación con PHP y MVC", []string{"PHP", "MVC"}, "UNI Postgrado Nicaragua", "2024"},
		},

		SocialTitle: "Redes Sociales",
		SocialDesc:  "Puedes encontrarme en...",
		Rights:      "Todos los derechos reservados.",
	},
}

// lookupLanguage returns the translation for code, falling back to English.
func lookupLanguage(code string) Language {
	if l, ok := languages[code]; ok {
		return l
	}
	return languages["en"]
}
