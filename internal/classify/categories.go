package classify

// Category identifies one topical shelf.
type Category string

const (
	Fiqh    Category = "fiqh"
	Aqeedah Category = "aqeedah"
	Usul    Category = "usul"
	Tafsir  Category = "tafsir"
	Hadith  Category = "hadith"
	History Category = "history"
	Ethics  Category = "ethics"
	Dua     Category = "dua"
)

// DefaultCategory is chosen when no keyword matches or the top score is tied.
const DefaultCategory = Fiqh

// Info describes a category for display and holds its keyword list.
type Info struct {
	ID          Category `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	NameArabic  string   `json:"name_ar" yaml:"name_ar"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
}

// categories is ordered; the order is part of the scoring contract.
var categories = []Info{
	{
		ID: Fiqh, Name: "Jurisprudence", NameArabic: "الفقه",
		Description: "Islamic Jurisprudence and Legal Rulings",
		Keywords:    []string{"فقه", "أحكام", "حلال", "حرام", "واجب", "مستحب", "الفتاوى", "المسائل", "الاستفتاءات"},
	},
	{
		ID: Aqeedah, Name: "Creed", NameArabic: "العقائد",
		Description: "Islamic Beliefs and Theology",
		Keywords:    []string{"عقائد", "عقيدة", "توحيد", "الإمامة", "النبوة", "المعاد", "العدل"},
	},
	{
		ID: Usul, Name: "Principles of Jurisprudence", NameArabic: "أصول الفقه",
		Description: "Fundamentals of Islamic Legal Theory",
		Keywords:    []string{"أصول الفقه", "الاجتهاد", "القياس", "الاستنباط", "الأدلة"},
	},
	{
		ID: Tafsir, Name: "Exegesis", NameArabic: "التفسير",
		Description: "Quranic Interpretation and Commentary",
		Keywords:    []string{"تفسير", "القرآن", "الآية", "السورة", "التأويل", "المعاني"},
	},
	{
		ID: Hadith, Name: "Hadith", NameArabic: "الحديث",
		Description: "Prophetic Traditions and Narrations",
		Keywords:    []string{"حديث", "رواية", "الإسناد", "السند", "المتن", "الراوي"},
	},
	{
		ID: History, Name: "History", NameArabic: "التاريخ",
		Description: "Islamic History and Biography",
		Keywords:    []string{"تاريخ", "السيرة", "الوفاة", "الولادة", "الأحداث"},
	},
	{
		ID: Ethics, Name: "Ethics", NameArabic: "الأخلاق",
		Description: "Islamic Ethics and Morality",
		Keywords:    []string{"أخلاق", "الأدب", "السلوك", "الفضائل", "الرذائل", "التهذيب"},
	},
	{
		ID: Dua, Name: "Supplications", NameArabic: "الأدعية",
		Description: "Prayers and Supplications",
		Keywords:    []string{"دعاء", "أدعية", "الزيارة", "المناجاة", "الابتهال"},
	},
}

// Categories returns every category in scoring order.
func Categories() []Info {
	out := make([]Info, len(categories))
	copy(out, categories)
	return out
}

// Lookup returns the Info for id.
func Lookup(id Category) (Info, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Info{}, false
}
