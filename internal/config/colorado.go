package config

// Colorado precinct numbers are ten digits:
//
//	1 digit  congressional district
//	2 digits state senate district
//	2 digits state house district
//	2 digits county number
//	3 digits precinct within the county
//
// See https://www.sos.state.co.us/pubs/elections/FAQs/VoterFAQs.html

// ElPasoCountyNumber is El Paso County's id in the Secretary of State's
// county roster.
const ElPasoCountyNumber = 21

// DefaultCatalog returns the Colorado catalog. Each call builds a fresh value
// so callers never share maps.
func DefaultCatalog() Catalog {
	return Catalog{
		DistrictTypes: []DistrictType{
			// 7 congressional districts in 2020, 8 from 2022.
			{Name: "us_house", First: 1, Last: 8, Group: GroupCongressional},
			{Name: "co_senate", First: 1, Last: 35, Group: GroupSenate},
			{Name: "co_house", First: 1, Last: 65, Group: GroupHouse},
			{Name: "co_county", First: 1, Last: 64, Group: GroupCounty},
			{
				Name:         "elpaso_commissioner",
				First:        1,
				Last:         5,
				Group:        GroupCounty,
				CountyNumber: ElPasoCountyNumber,
				CountyName:   "El Paso",
			},
		},
		Years: []Year{
			{
				Year: 2022,
				Statewide: []StatewideRace{
					{Key: "governor", Office: "Governor/Lieutenant Governor"},
					{Key: "sec_of_state", Office: "Secretary of State"},
					{Key: "state_treasurer", Office: "State Treasurer"},
					{Key: "attorney_general", Office: "Attorney General"},
					{Key: "boe_at_large", Office: "State Board of Education Member - At Large"},
				},
				Countywide: []string{"assessor", "car", "sheriff", "county_treasurer"},
				Columns:    Columns{Office: "Office", Votes: "Votes"},
			},
			{
				Year: 2020,
				Statewide: []StatewideRace{
					{Key: "us_president", Office: "President/Vice President"},
					{Key: "us_senator", Office: "United States Senator"},
				},
				Columns: Columns{Office: "Office/Issue/Judgeship", Votes: "Candidate Votes"},
			},
			{
				Year: 2016,
				Statewide: []StatewideRace{
					{Key: "us_president", Office: "President/Vice President"},
					{Key: "us_senator", Office: "United States Senator"},
					{Key: "regent_at_large", Office: "Regent Of The University Of Colorado - At Large"},
				},
				Columns: Columns{Office: "Office/Issue/Judgeship", Votes: "Candidate Votes"},
				Provisional: []ProvisionalOverride{
					{County: "Larimer", Districts: legislative(2, 14, 49, 35)}, // senate could also be 52, 53
				},
			},
			{
				Year: 2014,
				Provisional: []ProvisionalOverride{
					{County: "Larimer", Districts: legislative(2, 15, 49, 35)}, // house could also be 52, 53
					{County: "Summit", Districts: legislative(2, 8, 61, 59)},
					{County: "Rio Grande", Districts: legislative(3, 35, 62, 53)},
				},
			},
			{
				Year: 2012,
				Provisional: []ProvisionalOverride{
					{County: "Archuleta", Districts: legislative(3, 6, 59, 4)},
					{County: "Broomfield", Districts: legislative(2, 23, 33, 64)},
					{County: "Clear Creek", Districts: legislative(2, 2, 13, 10)},
					{County: "Conejos", Districts: legislative(3, 35, 62, 11)},
					{County: "Delta", Districts: legislative(3, 5, 61, 15)}, // house could be 54
					{County: "Dolores", Districts: legislative(3, 6, 58, 17)},
					{County: "Douglas", Districts: legislative(6, 30, 43, 18)}, // ambiguous on all three
					{County: "Fremont", Districts: legislative(5, 2, 60, 22)},  // house could be 47
					{County: "Grand", Districts: legislative(2, 8, 13, 25)},
					{County: "Gunnison", Districts: legislative(3, 5, 61, 26)}, // house could be 59
					{County: "Jackson", Districts: legislative(3, 8, 13, 29)},
					{County: "Kit Carson", Districts: legislative(4, 1, 65, 32)},
					{County: "Larimer", Districts: legislative(2, 14, 52, 35)},
					{County: "Moffat", Districts: legislative(3, 8, 57, 41)},
					{County: "Montrose", Districts: legislative(3, 6, 58, 43)},
					{County: "Pitkin", Districts: legislative(3, 5, 61, 49)},
					{County: "Rio Blanco", Districts: legislative(3, 8, 57, 52)},
					{County: "Summit", Districts: legislative(2, 8, 61, 59)},
					{County: "Weld", Districts: legislative(4, 23, 63, 62)},
					{County: "Yuma", Districts: legislative(4, 1, 65, 63)},
				},
			},
		},
		Parties: Parties{
			// 2020 files spell the party out, 2022 files abbreviate.
			Democrat:   []string{"Democratic Party", "DEM"},
			Republican: []string{"Republican Party", "REP"},
		},
		Markers: Markers{
			Provisional:  "Provisional",
			Mask:         "****",
			Democrat:     "(DEM)",
			Republican:   "(REP)",
			CountyJoiner: " - ",
		},
		// Skip the governor and secretary of state: too much name recognition.
		DownBallotStatewide:  []string{"state_treasurer", "attorney_general", "boe_at_large"},
		DownBallotCountywide: []string{"assessor", "car", "sheriff", "county_treasurer"},
	}
}

func legislative(congressional, senate, house, county int) map[string]int {
	return map[string]int{
		"us_house":  congressional,
		"co_senate": senate,
		"co_house":  house,
		"co_county": county,
	}
}
