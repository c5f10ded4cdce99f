package abx

import "github.com/dgallion1/bookgest/internal/tags"

// Tag vocabulary of the format. Spellings are canonical; mojibake variants
// are added by the extractor in tolerant mode.
var (
	fieldIdentity  = tags.Field{Name: "identity", Spellings: []string{"هوية الكتاب"}}
	fieldBookName  = tags.Field{Name: "book_name", Spellings: []string{"اسم الكتاب"}}
	fieldAuthor    = tags.Field{Name: "author", Spellings: []string{"اسم المؤلف"}}
	fieldVolume    = tags.Field{Name: "volume", Spellings: []string{"جزء"}}
	fieldDeathYear = tags.Field{Name: "death_year", Spellings: []string{"سنة الوفاة"}}
	fieldCategory  = tags.Field{Name: "category_hint", Spellings: []string{"مجموعة"}}
	fieldPublisher = tags.Field{Name: "publisher", Spellings: []string{"الناشر"}}
	fieldCity      = tags.Field{Name: "city", Spellings: []string{"مدينة الطبع"}}
	fieldPrintYear = tags.Field{Name: "print_year", Spellings: []string{"سنة الطبع"}}
	fieldEdition   = tags.Field{Name: "edition", Spellings: []string{"طبعة"}}

	fieldPage       = tags.Field{Name: "page", Spellings: []string{"صفحة"}}
	fieldAttachment = tags.Field{Name: "attachment", Spellings: []string{"ملحق"}}
	fieldFootnote   = tags.Field{Name: "footnote", Spellings: []string{"هامش"}}
	fieldVerse      = tags.Field{Name: "verse", Spellings: []string{"شعر"}}
	fieldLink       = tags.Field{Name: "link", Spellings: []string{"ارتباط"}}

	fieldTOC = tags.Field{Name: "toc", Spellings: []string{"فهرس الموضوعات"}}
	// fieldTOCAny matches any tag named فهرس..., used when the exact TOC tag
	// is absent from a page.
	fieldTOCAny = tags.Field{Name: "toc", Spellings: []string{"فهرس"}, Prefix: true}
)
