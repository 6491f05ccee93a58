package region

// Default is the built-in crawl hierarchy for the listing site. The table is
// intentionally static: the site organizes merchants by these fixed
// administrative divisions and a full crawl walks every triple below.
func Default() Hierarchy {
	return Hierarchy{
		"경기": {
			"성남시": {"분당동", "정자동", "판교동"},
			"수원시": {"매탄동", "인계동"},
		},
		"대구": {
			"수성구": {"범어동", "수성동"},
		},
		"부산": {
			"부산진구": {"부전동", "전포동"},
			"해운대구": {"우동", "좌동", "중동"},
		},
		"서울": {
			"강남구": {"개포동", "논현동", "대치동", "삼성동", "역삼동"},
			"강동구": {"길동", "성내동", "천호동"},
			"마포구": {"망원동", "서교동", "합정동"},
		},
		"인천": {
			"남동구": {"구월동", "논현동"},
		},
	}
}
