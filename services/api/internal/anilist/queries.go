package anilist

const homeQuery = `
query {
  trending: Page(perPage: 10) {
    media(sort: TRENDING_DESC, type: ANIME) {
      id
      title { romaji }
      coverImage { extraLarge large medium }
      bannerImage
      description
    }
  }
  popular: Page(perPage: 10) {
    media(sort: POPULARITY_DESC, type: ANIME) { id title { romaji } coverImage { extraLarge large medium } }
  }
  action: Page(perPage: 10) {
    media(genre: "Action", sort: POPULARITY_DESC, type: ANIME) { id title { romaji } coverImage { extraLarge large medium } }
  }
  romance: Page(perPage: 10) {
    media(genre: "Romance", sort: POPULARITY_DESC, type: ANIME) { id title { romaji } coverImage { extraLarge large medium } }
  }
  horror: Page(perPage: 10) {
    media(genre: "Horror", sort: POPULARITY_DESC, type: ANIME) { id title { romaji } coverImage { extraLarge large medium } }
  }
  sports: Page(perPage: 10) {
    media(genre: "Sports", sort: POPULARITY_DESC, type: ANIME) { id title { romaji } coverImage { extraLarge large medium } }
  }
}`

const animeQuery = `
query ($search: String) {
  Media(search: $search, type: ANIME) {
    title { romaji }
    coverImage { extraLarge large medium }
    bannerImage
    description
    averageScore
    episodes
    status
    format
  }
}`

const suggestQuery = `
query ($search: String) {
  Page(perPage: 5) {
    media(search: $search, type: ANIME, sort: POPULARITY_DESC) {
      title { romaji }
      coverImage { medium }
      format
    }
  }
}`
